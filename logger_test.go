package netframe

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type logEntry struct {
	level string
	msg   string
	args  []any
}

// mockLogger records every call. Conn logs from several goroutines.
type mockLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *mockLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *mockLogger) Debug(msg string, args ...any) { l.record("debug", msg, args) }
func (l *mockLogger) Info(msg string, args ...any)  { l.record("info", msg, args) }
func (l *mockLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args) }
func (l *mockLogger) Error(msg string, args ...any) { l.record("error", msg, args) }

func (l *mockLogger) find(level, msg string) (logEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}

func TestLogger_Implementations(t *testing.T) {
	for name, logger := range map[string]Logger{
		"slog": slog.New(slog.NewTextHandler(io.Discard, nil)),
		"nop":  NopLogger(),
		"mock": &mockLogger{},
	} {
		t.Run(name, func(t *testing.T) {
			logger.Debug("d", "k", 1)
			logger.Info("i")
			logger.Warn("w", "odd")
			logger.Error("e", "k", nil)
		})
	}
}

func TestDefaultLogger(t *testing.T) {
	if defaultLogger() != slog.Default() {
		t.Error("defaultLogger is not slog.Default()")
	}
	if NopLogger() != (nopLogger{}) {
		t.Error("NopLogger is not the discarding logger")
	}
}

func TestMockLogger_Levels(t *testing.T) {
	mock := &mockLogger{}
	var logger Logger = mock

	logger.Debug("a")
	logger.Info("b", "key", "value")
	logger.Warn("c")
	logger.Error("d")

	want := []logEntry{
		{level: "debug", msg: "a"},
		{level: "info", msg: "b", args: []any{"key", "value"}},
		{level: "warn", msg: "c"},
		{level: "error", msg: "d"},
	}
	if len(mock.entries) != len(want) {
		t.Fatalf("entries = %+v", mock.entries)
	}
	for i, w := range want {
		got := mock.entries[i]
		if got.level != w.level || got.msg != w.msg || len(got.args) != len(w.args) {
			t.Errorf("entry %d = %+v, want %+v", i, got, w)
		}
	}
}

func TestConn_LogsThroughLogger(t *testing.T) {
	serverConn, clientConn := createTestTCPPair(t)
	defer clientConn.Close()

	logger := &mockLogger{}
	conn, err := NewConn(serverConn, OnFrameOption(nopOnFrame), LoggerOption(logger))
	if err != nil {
		t.Fatalf("NewConn failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- conn.Run(ctx)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for Run to complete")
	}

	e, ok := logger.find("info", "connection established")
	if !ok {
		t.Fatal("connection established not logged")
	}
	if len(e.args) != 2 || e.args[0] != "addr" {
		t.Errorf("args = %v, want addr pair", e.args)
	}
	if _, ok := logger.find("info", "connection closed"); !ok {
		t.Error("connection closed not logged")
	}
	if _, ok := logger.find("debug", "connection options"); !ok {
		t.Error("connection options not logged at debug")
	}
}
