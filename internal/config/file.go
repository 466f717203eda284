package config

import (
	"os"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// FileConfig mirrors Config with string durations for TOML.
type FileConfig struct {
	Listen          string `toml:"listen"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
	Heartbeat       string `toml:"heartbeat"`
	SendBuffer      int    `toml:"send_buffer"`
	ReadBuffer      int    `toml:"read_buffer"`
	MaxFrames       int    `toml:"max_frames"`
	MaxPendingBytes int    `toml:"max_pending_bytes"`
	Greeting        string `toml:"greeting"`

	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
		Output string `toml:"output"`
	} `toml:"log"`
}

// LoadFile reads and parses a TOML config file.
func LoadFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, errors.Wrap(err, "read config")
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, errors.Wrapf(err, "parse %s", path)
	}
	return fc, nil
}

// ApplyFile copies set fields of fc into cfg, skipping fields whose flag was
// given on the command line.
func ApplyFile(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newSetter(changed)

	s.setString("listen", fc.Listen, &cfg.Listen)
	s.setString("greeting", fc.Greeting, &cfg.Greeting)
	s.setString("log-level", fc.Log.Level, &cfg.Log.Level)
	s.setString("log-format", fc.Log.Format, &cfg.Log.Format)
	s.setString("log-output", fc.Log.Output, &cfg.Log.Output)

	if err := s.setDuration("shutdown-timeout", fc.ShutdownTimeout, &cfg.ShutdownTimeout); err != nil {
		return err
	}
	if err := s.setDuration("heartbeat", fc.Heartbeat, &cfg.Heartbeat); err != nil {
		return err
	}

	s.setInt("send-buffer", fc.SendBuffer, &cfg.SendBuffer)
	s.setInt("read-buffer", fc.ReadBuffer, &cfg.ReadBuffer)
	s.setInt("max-frames", fc.MaxFrames, &cfg.MaxFrames)
	s.setInt("max-pending-bytes", fc.MaxPendingBytes, &cfg.MaxPendingBytes)

	return nil
}
