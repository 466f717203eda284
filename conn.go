// Package netframe serves the netframe protocol over TCP.
// Each connection owns one framing engine from package stream; bytes read
// from the socket are pushed into it and every completed frame is handed to
// the application in wire order.
package netframe

import (
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Zereker/netframe/frame"
	"github.com/Zereker/netframe/stream"
)

// Errors returned by connection operations.
var (
	// ErrInvalidOnFrame is returned when no frame handler is provided.
	ErrInvalidOnFrame = errors.New("invalid on frame callback")
	// ErrConnectionClosed is returned when writing to a closed connection.
	ErrConnectionClosed error = stream.ErrOutputClosed
)

// Conn represents a client connection to a TCP server.
// It manages the underlying TCP connection and its framing engine,
// and provides read/write loops for asynchronous communication.
type Conn struct {
	rawConn *net.TCPConn
	engine  *stream.Engine
	logger  Logger

	opts options

	sendMsg chan []byte
	closed  atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Default configuration values.
const (
	// defaultBufferSize is the default size of the send channel buffer.
	defaultBufferSize = 1
	// defaultReadBufferSize is the default size of a single socket read.
	defaultReadBufferSize = 4096
	// defaultHeartbeat is the default heartbeat interval.
	defaultHeartbeat = 30 * time.Second
)

// NewConn creates a new connection wrapper around the given TCP connection.
// It applies the provided options and validates them before returning.
// Returns an error if the frame handler is missing.
func NewConn(conn *net.TCPConn, opt ...Option) (*Conn, error) {
	var opts options
	for _, o := range opt {
		o(&opts)
	}

	err := checkOptions(&opts)
	if err != nil {
		return nil, err
	}

	return newClientConnWithOptions(conn, opts), nil
}

// checkOptions validates and sets default values for connection options.
func checkOptions(opts *options) error {
	if opts.bufferSize <= 0 {
		opts.bufferSize = defaultBufferSize
	}

	if opts.readBufferSize <= 0 {
		opts.readBufferSize = defaultReadBufferSize
	}

	if opts.onFrame == nil {
		return ErrInvalidOnFrame
	}

	if opts.heartbeat <= 0 {
		opts.heartbeat = defaultHeartbeat
	}

	if opts.onError == nil {
		opts.onError = func(err error) ErrorAction { return Disconnect }
	}

	if opts.logger == nil {
		opts.logger = defaultLogger()
	}

	return nil
}

// newClientConnWithOptions creates a new Conn with the given options.
func newClientConnWithOptions(c *net.TCPConn, opts options) *Conn {
	// frames that arrive coalesced in one read must not wait for the next read
	streamOpts := append([]stream.Option{stream.WithExtractAll()}, opts.streamOpts...)

	return &Conn{
		rawConn: c,
		engine:  stream.New(streamOpts...),
		logger:  opts.logger,
		opts:    opts,
		sendMsg: make(chan []byte, opts.bufferSize),
	}
}

// Run starts the connection's read and write loops.
// It blocks until an error occurs or the context is canceled.
// The connection is automatically closed when Run returns.
// A peer that closes its side ends Run with an error of kind stream.StreamClosed.
func (c *Conn) Run(ctx context.Context) error {
	c.logger.Info("connection established", "addr", c.Addr())
	c.logger.Debug("connection options", "addr", c.Addr(),
		"buffer_size", c.opts.bufferSize,
		"read_buffer_size", c.opts.readBufferSize,
		"heartbeat", c.opts.heartbeat)

	if c.opts.onConnect != nil {
		if err := c.opts.onConnect(c); err != nil {
			c.closeConn()
			c.logger.Info("connection rejected", "addr", c.Addr(), "error", err)
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	if c.closed.Load() {
		cancel()
	}
	group, child := errgroup.WithContext(ctx)

	group.Go(func() error {
		return c.readLoop(child)
	})

	group.Go(func() error {
		return c.writeLoop(child)
	})

	group.Go(func() error {
		// unblock a pending Read once either loop is done
		<-child.Done()
		_ = c.rawConn.SetReadDeadline(time.Now())
		return nil
	})

	err := group.Wait()
	c.closeConn()

	switch {
	case err == nil, errors.Is(err, context.Canceled):
		c.logger.Info("connection closed", "addr", c.Addr())
	case stream.KindOf(err) == stream.StreamClosed:
		c.logger.Info("connection closed by peer", "addr", c.Addr())
	default:
		c.logger.Info("connection closed with error", "addr", c.Addr(), "error", err)
	}

	return err
}

// Close gracefully closes the connection.
// It cancels the context and closes the underlying TCP connection.
// Safe to call multiple times.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil // already closed
	}
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return c.rawConn.Close()
}

// IsClosed returns true if the connection has been closed.
func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}

// ResetStream discards the engine's buffered bytes and queued frames.
// It must only be called from the frame handler, which runs on the read loop.
func (c *Conn) ResetStream() {
	c.engine.Reset()
}

// ErrBufferFull is returned when the send buffer is full and cannot accept more frames.
// This error indicates backpressure - the receiver is not consuming frames fast enough.
// Recommended handling strategies:
//   - Drop the frame (for non-critical data like pings)
//   - Use WriteBlocking or WriteTimeout to wait for buffer space
//   - Implement application-level flow control
var ErrBufferFull = errors.New("send buffer full")

// Write sends a frame through the connection without blocking (fire-and-forget).
//
// Returns:
//   - nil: frame was successfully queued (not yet sent)
//   - ErrBufferFull: send buffer is full, frame was NOT queued
//   - ErrConnectionClosed: connection is closed
//   - an error of kind stream.StreamMessageTooLong: payload exceeds 65535 bytes
//
// For guaranteed delivery, use WriteBlocking or WriteTimeout instead.
func (c *Conn) Write(f frame.Frame) error {
	bytes, err := c.encode(f)
	if err != nil {
		return err
	}

	select {
	case c.sendMsg <- bytes:
		return nil
	default:
		return ErrBufferFull
	}
}

// WriteBlocking sends a frame through the connection, blocking until the frame
// is queued or the context is canceled.
//
// Returns:
//   - nil: frame was successfully queued
//   - context.Canceled or context.DeadlineExceeded: context was canceled
//   - ErrConnectionClosed: connection is closed
//   - an error of kind stream.StreamMessageTooLong: payload exceeds 65535 bytes
func (c *Conn) WriteBlocking(ctx context.Context, f frame.Frame) error {
	bytes, err := c.encode(f)
	if err != nil {
		return err
	}

	select {
	case c.sendMsg <- bytes:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WriteTimeout sends a frame through the connection with a timeout.
// This provides a middle ground between Write (non-blocking) and WriteBlocking.
//
// Returns:
//   - nil: frame was successfully queued
//   - ErrBufferFull: timeout expired before frame could be queued
//   - ErrConnectionClosed: connection is closed
//   - an error of kind stream.StreamMessageTooLong: payload exceeds 65535 bytes
func (c *Conn) WriteTimeout(f frame.Frame, timeout time.Duration) error {
	bytes, err := c.encode(f)
	if err != nil {
		return err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case c.sendMsg <- bytes:
		return nil
	case <-timer.C:
		return ErrBufferFull
	}
}

// Addr returns the remote address of the connection.
func (c *Conn) Addr() net.Addr {
	return c.rawConn.RemoteAddr()
}

func (c *Conn) encode(f frame.Frame) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrConnectionClosed
	}
	b, err := frame.Encode(f)
	if err != nil {
		return nil, stream.Wrap(stream.StreamMessageTooLong, err)
	}
	return b, nil
}

// readLoop reads raw chunks from the connection and feeds them to the engine.
// Returns when the context is canceled, the peer closes the connection, or an
// error is not suppressed by onError.
func (c *Conn) readLoop(ctx context.Context) error {
	buf := make([]byte, c.opts.readBufferSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_ = c.rawConn.SetReadDeadline(time.Now().Add(c.opts.heartbeat * 2))
		n, err := c.rawConn.Read(buf)
		if n > 0 {
			if ferr := c.feed(buf[:n]); ferr != nil {
				return ferr
			}
		}
		if err == nil {
			continue
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
			return stream.Wrap(stream.StreamClosed, err)
		}

		err = stream.Wrap(stream.ReadFailure, err)
		c.logger.Debug("read error", "addr", c.Addr(), "error", err)
		if c.opts.onError(err) == Disconnect {
			return err
		}
	}
}

// feed pushes one chunk into the engine and dispatches every frame it yields.
// A framing error is passed to onError; Continue resets the engine so the
// stream can resynchronize on the next frame boundary the peer sends.
func (c *Conn) feed(chunk []byte) error {
	for {
		werr := c.engine.Write(chunk)
		produced := c.engine.Len()

		if err := c.dispatch(); err != nil {
			return err
		}
		if c.closed.Load() {
			return nil
		}

		if werr != nil {
			c.logger.Debug("framing error", "addr", c.Addr(),
				"error", werr, "state", c.engine.State().String())
			if c.opts.onError(werr) == Disconnect {
				return werr
			}
			c.engine.Reset()
			return nil
		}

		// extraction stops at the queue limit; look again once drained
		if produced == 0 || c.engine.State() != stream.InProgress {
			return nil
		}
		chunk = nil
	}
}

// dispatch drains decoded frames to the frame handler. Frames still queued
// when the handler closes the connection are dropped.
func (c *Conn) dispatch() error {
	for !c.closed.Load() {
		f, err := c.engine.Next()
		if err != nil {
			return nil
		}
		if err = c.opts.onFrame(c, f); err != nil {
			return err
		}
	}
	return nil
}

// writeLoop continuously sends frames from the send channel to the connection.
// Returns when the context is canceled or an unrecoverable error occurs.
func (c *Conn) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data := <-c.sendMsg:
			if err := c.write(data); err != nil {
				return err
			}
		}
	}
}

// write sends data to the connection with a deadline.
// If an error occurs and onError returns Disconnect, the error is propagated.
// Otherwise, the error is suppressed and writing continues.
func (c *Conn) write(data []byte) error {
	_ = c.rawConn.SetWriteDeadline(time.Now().Add(c.opts.heartbeat * 2))

	_, err := c.rawConn.Write(data)

	if err != nil {
		err = stream.Wrap(stream.WriteFailure, err)
		c.logger.Debug("write error", "addr", c.Addr(), "error", err)
		if c.opts.onError(err) == Disconnect {
			return err
		}
	}

	return nil
}

// closeConn marks the connection as closed and closes the underlying TCP connection.
func (c *Conn) closeConn() {
	c.closed.Store(true)
	c.rawConn.Close()
}
