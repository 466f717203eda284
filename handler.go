package netframe

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
)

// FrameHandler is a Handler that runs every accepted socket as a Conn built
// from the same options, and keeps track of the live ones.
type FrameHandler struct {
	opts   []Option
	logger Logger

	nextID atomic.Int64
	wg     sync.WaitGroup

	mu     sync.Mutex
	conns  map[int64]*Conn
	closed bool
}

// NewFrameHandler returns a FrameHandler. The options are validated per
// connection; OnFrameOption is required.
func NewFrameHandler(opts ...Option) *FrameHandler {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = defaultLogger()
	}

	return &FrameHandler{
		opts:   opts,
		logger: o.logger,
		conns:  make(map[int64]*Conn),
	}
}

// Handle implements Handler. It blocks until the connection ends.
// Sockets handed over after CloseAll are closed right away.
func (h *FrameHandler) Handle(ctx context.Context, raw *net.TCPConn) {
	conn, err := NewConn(raw, h.opts...)
	if err != nil {
		h.logger.Error("create connection", "remote_addr", raw.RemoteAddr(), "error", err)
		_ = raw.Close()
		return
	}

	id := h.nextID.Add(1)
	if !h.add(id, conn) {
		h.logger.Debug("connection refused after close", "remote_addr", raw.RemoteAddr())
		_ = raw.Close()
		return
	}
	defer h.wg.Done()
	defer h.remove(id)

	h.logger.Debug("connection started", "conn_id", id, "addr", conn.Addr())
	err = conn.Run(ctx)
	h.logger.Debug("connection finished", "conn_id", id, "error", err)
}

// Count returns the number of connections currently running.
func (h *FrameHandler) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.conns)
}

// CloseAll closes every running connection and makes the handler refuse
// new ones. Wait may be called once CloseAll returns.
func (h *FrameHandler) CloseAll() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
}

// Wait blocks until every accepted connection has finished.
func (h *FrameHandler) Wait() {
	h.wg.Wait()
}

// add registers c unless the handler is closed. The WaitGroup is bumped
// under the same lock, so it never races with a Wait that follows CloseAll.
func (h *FrameHandler) add(id int64, c *Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.wg.Add(1)
	h.conns[id] = c
	return true
}

func (h *FrameHandler) remove(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.conns, id)
}
