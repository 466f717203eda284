package stream

import (
	"github.com/pkg/errors"

	"github.com/Zereker/netframe/frame"
)

// Kind classifies stream errors. Callers branch on Kind to decide whether to
// wait for more bytes, reset the engine or drop the connection.
type Kind uint8

const (
	Generic Kind = iota
	Unknown

	// transport failures, raised by the connection layer
	ReadFailure
	WriteFailure

	// buffer limits
	StreamBytesEmpty
	StreamBytesFull

	// stream contract
	StreamClosed
	StreamOutputClosed

	// message handling
	StreamMessageTooLong
	StreamMessageCountZero
	StreamMessageCountFull

	// FramingDelimiterMismatch means the byte stream lost frame alignment.
	// The engine cannot recover on its own; drop or reset.
	FramingDelimiterMismatch
	// FramingTooLittleData means no decision is possible yet.
	FramingTooLittleData

	// StreamFailure is terminal until the engine is reset.
	StreamFailure
)

var kindNames = [...]string{
	Generic:                  "generic",
	Unknown:                  "unknown",
	ReadFailure:              "read failure",
	WriteFailure:             "write failure",
	StreamBytesEmpty:         "stream bytes empty",
	StreamBytesFull:          "stream bytes full",
	StreamClosed:             "stream closed",
	StreamOutputClosed:       "stream output closed",
	StreamMessageTooLong:     "stream message too long",
	StreamMessageCountZero:   "stream message count zero",
	StreamMessageCountFull:   "stream message count full",
	FramingDelimiterMismatch: "framing delimiter mismatch",
	FramingTooLittleData:     "framing too little data",
	StreamFailure:            "stream failure",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Error is the error type of the stream package.
type Error struct {
	Kind  Kind
	cause error
}

// NewError returns an Error of the given kind without a cause.
func NewError(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Wrap returns an Error of the given kind carrying err as its cause.
// A nil err yields a nil error.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, cause: err}
}

func (e *Error) Error() string {
	if e.cause == nil {
		return "stream: " + e.Kind.String()
	}
	return "stream: " + e.Kind.String() + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

// Cause implements the github.com/pkg/errors causer interface.
func (e *Error) Cause() error { return e.cause }

// Is reports whether target is an *Error of the same kind, so sentinels
// match wrapped errors of their kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrMessageCountZero  = NewError(StreamMessageCountZero)
	ErrMessageCountFull  = NewError(StreamMessageCountFull)
	ErrBytesFull         = NewError(StreamBytesFull)
	ErrFailure           = NewError(StreamFailure)
	ErrDelimiterMismatch = NewError(FramingDelimiterMismatch)
	ErrTooLittleData     = NewError(FramingTooLittleData)
	ErrClosed            = NewError(StreamClosed)
	ErrOutputClosed      = NewError(StreamOutputClosed)
	ErrMessageTooLong    = NewError(StreamMessageTooLong)
	ErrReadFailure       = NewError(ReadFailure)
	ErrWriteFailure      = NewError(WriteFailure)
)

// KindOf returns the Kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return Unknown
}

// FromHeader maps a frame.ParseHeader error to a stream error.
func FromHeader(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, frame.ErrTooLittleData):
		return Wrap(FramingTooLittleData, err)
	case errors.Is(err, frame.ErrDelimiterMismatch):
		return Wrap(FramingDelimiterMismatch, err)
	default:
		return Wrap(Unknown, err)
	}
}
