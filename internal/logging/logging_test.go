package logging

import (
	"bytes"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Zereker/netframe"
)

var _ netframe.Logger = (*Adapter)(nil)

func decodeLine(t *testing.T, line []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(line, &m); err != nil {
		t.Fatalf("unmarshal %q: %v", line, err)
	}
	return m
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"empty", Config{}, false},
		{"json debug", Config{Level: "debug", Format: FormatJSON}, false},
		{"upper case level", Config{Level: "WARN"}, false},
		{"bad level", Config{Level: "loud"}, true},
		{"bad format", Config{Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netframed.log")

	logger, closer, err := New(Config{Level: "info", Format: FormatJSON, Output: path})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Debug().Msg("hidden")
	logger.Info().Str("k", "v").Msg("shown")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := bytes.Split(bytes.TrimSpace(b), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %s", len(lines), b)
	}
	m := decodeLine(t, lines[0])
	if m["message"] != "shown" || m["k"] != "v" || m["level"] != "info" {
		t.Errorf("line = %v", m)
	}
	if _, ok := m["time"]; !ok {
		t.Error("missing timestamp")
	}
}

func TestNew_Errors(t *testing.T) {
	if _, _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("expected error for bad level")
	}
	if _, _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("expected error for bad format")
	}
	if _, _, err := New(Config{Output: filepath.Join(t.TempDir(), "missing", "x.log")}); err == nil {
		t.Error("expected error for unopenable file")
	}
}

func TestNew_StdStreams(t *testing.T) {
	for _, out := range []string{"", "stderr", "stdout"} {
		_, closer, err := New(Config{Output: out})
		if err != nil {
			t.Fatalf("New(%q) failed: %v", out, err)
		}
		if err := closer.Close(); err != nil {
			t.Errorf("Close(%q) failed: %v", out, err)
		}
	}
}

func TestAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	a := NewAdapter(zerolog.New(&buf))

	addr := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9000}
	a.Info("connection established", "addr", addr, "count", 3, "error", errors.New("boom"))

	m := decodeLine(t, bytes.TrimSpace(buf.Bytes()))
	if m["message"] != "connection established" {
		t.Errorf("message = %v", m["message"])
	}
	if m["addr"] != "127.0.0.1:9000" {
		t.Errorf("addr = %v", m["addr"])
	}
	if m["count"] != float64(3) {
		t.Errorf("count = %v", m["count"])
	}
	if m["error"] != "boom" {
		t.Errorf("error = %v", m["error"])
	}
}

func TestAdapter_Levels(t *testing.T) {
	var buf bytes.Buffer
	a := NewAdapter(zerolog.New(&buf).Level(zerolog.WarnLevel))

	a.Debug("d")
	a.Info("i")
	a.Warn("w")
	a.Error("e", "odd")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %s", len(lines), buf.String())
	}
	if m := decodeLine(t, []byte(lines[0])); m["level"] != "warn" {
		t.Errorf("first line = %v", m)
	}
	if m := decodeLine(t, []byte(lines[1])); m["level"] != "error" || m["!BADKEY"] != "odd" {
		t.Errorf("second line = %v", m)
	}
}

func TestFieldValue(t *testing.T) {
	if v := fieldValue(time.Second); v != time.Second {
		t.Errorf("duration rewritten to %v", v)
	}
	if v := fieldValue(nil); v != nil {
		t.Errorf("nil rewritten to %v", v)
	}
	if v := fieldValue(net.IPv4(10, 0, 0, 1)); v != "10.0.0.1" {
		t.Errorf("stringer = %v", v)
	}
}

func TestLogBuildInfo(t *testing.T) {
	var buf bytes.Buffer
	LogBuildInfo(zerolog.New(&buf), "netframed")

	m := decodeLine(t, bytes.TrimSpace(buf.Bytes()))
	if m["message"] != "netframed starting" {
		t.Errorf("message = %v", m["message"])
	}
	if m["version"] != Version() {
		t.Errorf("version = %v, want %v", m["version"], Version())
	}
	if _, ok := m["go"]; !ok {
		t.Error("missing go version")
	}
}
