package netframe

import (
	"time"

	"github.com/Zereker/netframe/frame"
	"github.com/Zereker/netframe/stream"
)

// ErrorAction defines the action to take when an error occurs.
type ErrorAction int

const (
	// Disconnect closes the connection when an error occurs.
	Disconnect ErrorAction = iota
	// Continue suppresses the error and continues processing.
	// For framing errors the connection's engine is reset first.
	Continue
)

// options holds the configuration for a connection.
type options struct {
	logger Logger

	onFrame   func(c *Conn, f frame.Frame) error
	onConnect func(c *Conn) error
	// onError is called when an error occurs.
	// Returns Disconnect to close the connection, Continue to suppress the error.
	onError func(error) ErrorAction

	bufferSize     int           // size of buffered send channel
	readBufferSize int           // size of a single socket read
	heartbeat      time.Duration // heartbeat interval for read/write deadlines
	streamOpts     []stream.Option
}

// Option is a function that configures connection options.
type Option func(*options)

// OnFrameOption sets the frame handler. It is required and is invoked,
// in wire order, for every frame decoded from the connection.
func OnFrameOption(cb func(c *Conn, f frame.Frame) error) Option {
	return func(o *options) {
		o.onFrame = cb
	}
}

// OnConnectOption sets a hook run by Conn.Run before any frame is read.
// Frames written from the hook are sent first. A non-nil error closes the
// connection.
func OnConnectOption(cb func(c *Conn) error) Option {
	return func(o *options) {
		o.onConnect = cb
	}
}

// BufferSizeOption returns an Option that sets the size of the send channel buffer.
// A larger buffer allows more frames to be queued before blocking.
func BufferSizeOption(size int) Option {
	return func(o *options) {
		o.bufferSize = size
	}
}

// ReadBufferSizeOption sets how many bytes are read from the socket per call.
func ReadBufferSizeOption(size int) Option {
	return func(o *options) {
		o.readBufferSize = size
	}
}

// HeartbeatOption returns an Option that sets the heartbeat interval.
// This determines the read/write deadline timeout (heartbeat * 2).
func HeartbeatOption(heartbeat time.Duration) Option {
	return func(o *options) {
		o.heartbeat = heartbeat
	}
}

// StreamOption passes engine options to the connection's framing engine.
func StreamOption(opts ...stream.Option) Option {
	return func(o *options) {
		o.streamOpts = append(o.streamOpts, opts...)
	}
}

// OnErrorOption returns an Option that sets the error callback.
// The callback is invoked when a read, write or framing error occurs.
// Return Disconnect to close the connection, or Continue to suppress the error.
func OnErrorOption(cb func(error) ErrorAction) Option {
	return func(o *options) {
		o.onError = cb
	}
}

// LoggerOption returns an Option that sets the logger.
// If not set, the default slog logger will be used.
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
