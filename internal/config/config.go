// Package config holds netframed's runtime configuration and the layering of
// defaults, TOML file, NETFRAME_* environment and command-line flags.
package config

import (
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/Zereker/netframe/frame"
	"github.com/Zereker/netframe/internal/logging"
	"github.com/Zereker/netframe/stream"
)

// DefaultListen is the address served when none is configured.
const DefaultListen = "127.0.0.1:9000"

// DefaultGreeting is sent in a Hello frame to every new connection.
const DefaultGreeting = "Hello world!\n"

// Config holds netframed configuration.
type Config struct {
	Listen          string
	ShutdownTimeout time.Duration
	Heartbeat       time.Duration

	SendBuffer int
	ReadBuffer int

	MaxFrames       int
	MaxPendingBytes int

	Greeting string

	Log logging.Config
}

// Default returns a Config with default values.
func Default() Config {
	return Config{
		Listen:          DefaultListen,
		ShutdownTimeout: 5 * time.Second,
		Heartbeat:       30 * time.Second,
		SendBuffer:      64,
		ReadBuffer:      4096,
		MaxFrames:       stream.DefaultMaxFrames,
		MaxPendingBytes: stream.DefaultMaxPendingBytes,
		Greeting:        DefaultGreeting,
		Log:             logging.DefaultConfig(),
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address is required")
	}
	if _, err := net.ResolveTCPAddr("tcp", c.Listen); err != nil {
		return errors.Wrapf(err, "listen address %q", c.Listen)
	}
	if c.ShutdownTimeout < 0 {
		return errors.New("shutdown timeout must not be negative")
	}
	if c.Heartbeat <= 0 {
		return errors.New("heartbeat must be positive")
	}
	if c.SendBuffer <= 0 {
		return errors.New("send buffer must be positive")
	}
	if c.ReadBuffer <= 0 {
		return errors.New("read buffer must be positive")
	}
	if c.MaxFrames < 0 {
		return errors.New("max frames must not be negative")
	}
	if c.MaxPendingBytes < 0 {
		return errors.New("max pending bytes must not be negative")
	}
	if c.MaxPendingBytes > 0 && c.MaxPendingBytes < frame.HeaderSize+frame.MaxPayloadSize {
		return errors.Errorf("max pending bytes %d cannot hold one full frame (%d)",
			c.MaxPendingBytes, frame.HeaderSize+frame.MaxPayloadSize)
	}
	if len(c.Greeting) > frame.MaxPayloadSize {
		return errors.New("greeting does not fit in one frame")
	}
	return errors.Wrap(c.Log.Validate(), "log")
}

// StreamOptions returns the engine options for the configured limits.
func (c *Config) StreamOptions() []stream.Option {
	return []stream.Option{
		stream.WithMaxFrames(c.MaxFrames),
		stream.WithMaxPendingBytes(c.MaxPendingBytes),
	}
}

// DefaultPath returns ~/.netframe/config.toml, or "" without a home directory.
func DefaultPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".netframe", "config.toml")
	}
	return ""
}

// FileExists reports whether a file exists at p.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
