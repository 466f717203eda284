// Package frame defines the netframe wire unit and its 4-byte header.
//
//	+-----------+-------+--------+----------+
//	|   8bit    | 8bit  | 16bit  | (length) |
//	| delimiter |  tag  | length |   data   |
//	+-----------+-------+--------+----------+
//
// The delimiter is always 0x00 and the length is big-endian. The tag is
// opaque at this layer and is handed to connection handlers unchanged.
package frame

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	// Delimiter is the first byte of every frame header.
	Delimiter byte = 0x00
	// HeaderSize is the number of bytes preceding the payload.
	HeaderSize = 4
	// MaxPayloadSize is the largest payload the 16-bit length can describe.
	MaxPayloadSize = 0xFFFF
)

var (
	// ErrTooLittleData is returned when fewer than HeaderSize bytes are available.
	ErrTooLittleData = errors.New("frame: too little data for header")
	// ErrDelimiterMismatch is returned when the first byte is not Delimiter.
	ErrDelimiterMismatch = errors.New("frame: delimiter mismatch")
	// ErrPayloadTooLarge is returned when encoding a payload over MaxPayloadSize.
	ErrPayloadTooLarge = errors.New("frame: payload too large")
)

// Metadata is the decoded header of a candidate frame.
type Metadata struct {
	Tag  byte
	Size uint16
}

// Len returns the full encoded length of the frame the header describes.
func (m Metadata) Len() int {
	return HeaderSize + int(m.Size)
}

// Frame is one complete message: a tag plus an opaque payload.
type Frame struct {
	Tag     byte
	Payload []byte
}

// New builds a frame with the given tag. The payload is not copied.
func New(tag Tag, payload []byte) Frame {
	return Frame{Tag: byte(tag), Payload: payload}
}

// Kind interprets the raw tag byte.
func (f Frame) Kind() Tag {
	return TagOf(f.Tag)
}

// ParseHeader reads frame metadata from the front of buf.
// It does not consume or modify buf.
func ParseHeader(buf []byte) (Metadata, error) {
	if len(buf) < HeaderSize {
		return Metadata{}, ErrTooLittleData
	}
	if buf[0] != Delimiter {
		return Metadata{}, ErrDelimiterMismatch
	}
	return Metadata{
		Tag:  buf[1],
		Size: binary.BigEndian.Uint16(buf[2:4]),
	}, nil
}

// AppendFrame appends the wire encoding of f to dst.
func AppendFrame(dst []byte, f Frame) ([]byte, error) {
	if len(f.Payload) > MaxPayloadSize {
		return dst, errors.Wrapf(ErrPayloadTooLarge, "%d bytes", len(f.Payload))
	}
	dst = append(dst, Delimiter, f.Tag)
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(f.Payload)))
	return append(dst, f.Payload...), nil
}

// Encode returns the wire encoding of f.
func Encode(f Frame) ([]byte, error) {
	return AppendFrame(make([]byte, 0, HeaderSize+len(f.Payload)), f)
}
