package netframe

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"
)

// recordingHandler collects accepted sockets and the context they were served with.
type recordingHandler struct {
	mu       sync.Mutex
	conns    []*net.TCPConn
	handleCh chan *net.TCPConn
	ctxs     chan context.Context
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		handleCh: make(chan *net.TCPConn, 10),
		ctxs:     make(chan context.Context, 10),
	}
}

func (h *recordingHandler) Handle(ctx context.Context, conn *net.TCPConn) {
	h.mu.Lock()
	h.conns = append(h.conns, conn)
	h.mu.Unlock()

	select {
	case h.ctxs <- ctx:
	default:
	}
	select {
	case h.handleCh <- conn:
	default:
	}
}

func (h *recordingHandler) getConns() []*net.TCPConn {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conns
}

func newLoopbackServer(t *testing.T, opts ...ServerOption) *Server {
	t.Helper()
	server, err := New(&net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0}, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return server
}

func TestNew(t *testing.T) {
	server := newLoopbackServer(t)
	defer server.Close()

	if server.listener == nil {
		t.Error("listener is nil")
	}
	if server.logger == nil {
		t.Error("logger is nil")
	}
}

func TestNew_OccupiedAddr(t *testing.T) {
	server1 := newLoopbackServer(t)
	defer server1.Close()

	_, err := New(server1.Addr().(*net.TCPAddr))
	if err == nil {
		t.Error("expected error for occupied port")
	}
}

func TestNew_Options(t *testing.T) {
	logger := NopLogger()
	server := newLoopbackServer(t,
		ServerLoggerOption(logger),
		ServerShutdownTimeoutOption(time.Second),
	)
	defer server.Close()

	if server.logger != logger {
		t.Error("logger not set")
	}
	if server.shutdownTimeout != time.Second {
		t.Errorf("shutdownTimeout = %v, want 1s", server.shutdownTimeout)
	}
}

func TestServer_Close(t *testing.T) {
	server := newLoopbackServer(t)

	if err := server.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	if _, err := server.listener.AcceptTCP(); err == nil {
		t.Error("expected error after close")
	}
}

func TestServer_Addr(t *testing.T) {
	server := newLoopbackServer(t)
	defer server.Close()

	if server.Addr() == nil {
		t.Error("Addr returned nil")
	}
}

func TestHandlerFunc(t *testing.T) {
	var got *net.TCPConn
	var h Handler = HandlerFunc(func(ctx context.Context, conn *net.TCPConn) {
		got = conn
	})

	conn := &net.TCPConn{}
	h.Handle(context.Background(), conn)
	if got != conn {
		t.Error("HandlerFunc did not forward the connection")
	}
}

func TestServer_Serve(t *testing.T) {
	server := newLoopbackServer(t)

	handler := newRecordingHandler()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx, handler)
	}()

	clientConn, err := net.DialTCP("tcp", nil, server.Addr().(*net.TCPAddr))
	if err != nil {
		t.Fatalf("client dial failed: %v", err)
	}
	defer clientConn.Close()

	select {
	case conn := <-handler.handleCh:
		conn.Close()
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for handler")
	}

	connCtx := <-handler.ctxs
	cancel()

	select {
	case <-connCtx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("connection context not canceled with the server")
	}

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for Serve to return")
	}
}

func TestServer_Serve_MultipleConnections(t *testing.T) {
	server := newLoopbackServer(t)
	defer server.Close()

	handler := newRecordingHandler()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go server.Serve(ctx, handler)

	numClients := 5
	clients := make([]*net.TCPConn, numClients)
	for i := 0; i < numClients; i++ {
		clientConn, err := net.DialTCP("tcp", nil, server.Addr().(*net.TCPAddr))
		if err != nil {
			t.Fatalf("client %d dial failed: %v", i, err)
		}
		clients[i] = clientConn
	}

	for i := 0; i < numClients; i++ {
		select {
		case <-handler.handleCh:
		case <-time.After(5 * time.Second):
			t.Fatalf("timeout waiting for handler %d", i)
		}
	}

	for _, conn := range clients {
		conn.Close()
	}

	conns := handler.getConns()
	if len(conns) != numClients {
		t.Errorf("handler received %d connections, want %d", len(conns), numClients)
	}
	for _, conn := range conns {
		conn.Close()
	}
}

func TestServer_Serve_ContextCanceled(t *testing.T) {
	server := newLoopbackServer(t)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx, newRecordingHandler())
	}()

	time.Sleep(time.Millisecond * 50)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for Serve to return")
	}
}

func TestServer_Serve_CloseBypassesShutdownTimeout(t *testing.T) {
	server := newLoopbackServer(t, ServerShutdownTimeoutOption(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx, newRecordingHandler())
	}()

	time.Sleep(time.Millisecond * 50)
	cancel()
	time.Sleep(time.Millisecond * 50)
	server.Close()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not bypass the shutdown timeout")
	}
}

func TestServer_Serve_ClosedWithoutCancel(t *testing.T) {
	server := newLoopbackServer(t)

	done := make(chan error, 1)
	go func() {
		done <- server.Serve(context.Background(), newRecordingHandler())
	}()

	time.Sleep(time.Millisecond * 50)
	server.Close()

	select {
	case err := <-done:
		if err != net.ErrClosed {
			t.Errorf("expected net.ErrClosed, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for Serve to return")
	}
}
