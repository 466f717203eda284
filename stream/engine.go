// Package stream reassembles netframe frames from arbitrarily chunked input.
//
// An Engine is fed raw bytes with Write as they arrive from a stream socket
// and hands out complete frames, oldest first, with Next. It performs no I/O
// and never blocks. One Engine serves exactly one byte stream and must not be
// used from two goroutines at once; run one engine per connection instead.
package stream

import "github.com/Zereker/netframe/frame"

// Default limits.
const (
	// DefaultMaxFrames is the default capacity of the decoded frame queue.
	DefaultMaxFrames = 256
	// DefaultMaxPendingBytes is the default cap on buffered bytes.
	DefaultMaxPendingBytes = 3 * frame.MaxPayloadSize
)

// Option configures an Engine.
type Option func(*Config)

// WithMaxFrames caps the number of decoded frames waiting for Next.
// n <= 0 removes the cap.
func WithMaxFrames(n int) Option {
	return func(c *Config) {
		c.MaxFrames = n
	}
}

// WithMaxPendingBytes caps how many bytes may be buffered at once.
// Exceeding it moves the engine to Failure. n <= 0 removes the cap.
func WithMaxPendingBytes(n int) Option {
	return func(c *Config) {
		c.MaxPendingBytes = n
	}
}

// WithExtractAll makes Write extract every complete frame in the buffer
// instead of at most one per call.
func WithExtractAll() Option {
	return func(c *Config) {
		c.ExtractAll = true
	}
}

// Engine is the incremental de-framer for one byte stream.
type Engine struct {
	cfg     Config
	state   State
	pending []byte
	decoded []frame.Frame
}

// New returns an empty engine.
func New(opts ...Option) *Engine {
	cfg := Config{
		MaxFrames:       DefaultMaxFrames,
		MaxPendingBytes: DefaultMaxPendingBytes,
	}
	for _, o := range opts {
		o(&cfg)
	}
	return &Engine{cfg: cfg}
}

// Write feeds data to the engine. A nil error with state InProgress means the
// engine needs more bytes. Frames completed by this call are queued even when
// an error is returned.
//
// Write does not retain data; the caller may reuse it once Write returns.
func (e *Engine) Write(data []byte) error {
	t, err := Step(e.state, e.pending, data, e.room(), e.cfg)
	e.state = t.State
	e.pending = t.Pending
	e.decoded = append(e.decoded, t.Frames...)
	return err
}

// Next pops the oldest decoded frame. It returns ErrMessageCountZero when no
// frame is ready, which only means more input is needed.
func (e *Engine) Next() (frame.Frame, error) {
	if len(e.decoded) == 0 {
		return frame.Frame{}, ErrMessageCountZero
	}
	f := e.decoded[0]
	e.decoded[0] = frame.Frame{}
	e.decoded = e.decoded[1:]
	if len(e.decoded) == 0 {
		e.decoded = nil
	}
	return f, nil
}

// Reset discards buffered bytes and queued frames and returns the engine to
// Empty. It is the only way out of Failure.
func (e *Engine) Reset() {
	e.state = Empty
	e.pending = nil
	e.decoded = nil
}

// State returns the current state.
func (e *Engine) State() State {
	return e.state
}

// Len returns the number of decoded frames waiting for Next.
func (e *Engine) Len() int {
	return len(e.decoded)
}

// Buffered returns a copy of the bytes held for the incomplete frame.
func (e *Engine) Buffered() []byte {
	if len(e.pending) == 0 {
		return nil
	}
	return append([]byte(nil), e.pending...)
}

func (e *Engine) room() int {
	if e.cfg.MaxFrames <= 0 {
		return int(^uint(0) >> 1)
	}
	return e.cfg.MaxFrames - len(e.decoded)
}
