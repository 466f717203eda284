package config

import "os"

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "NETFRAME_"

// ApplyEnv applies NETFRAME_* environment variables to cfg, skipping fields
// whose flag was given on the command line.
func ApplyEnv(cfg *Config, changed map[string]bool) error {
	return applyEnv(cfg, changed, os.Getenv)
}

func applyEnv(cfg *Config, changed map[string]bool, getenv func(string) string) error {
	s := newSetter(changed)
	env := func(name string) string { return getenv(EnvPrefix + name) }

	s.setString("listen", env("LISTEN"), &cfg.Listen)
	s.setString("greeting", env("GREETING"), &cfg.Greeting)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.Log.Level)
	s.setString("log-format", env("LOG_FORMAT"), &cfg.Log.Format)
	s.setString("log-output", env("LOG_OUTPUT"), &cfg.Log.Output)

	if err := s.setDuration("shutdown-timeout", env("SHUTDOWN_TIMEOUT"), &cfg.ShutdownTimeout); err != nil {
		return err
	}
	if err := s.setDuration("heartbeat", env("HEARTBEAT"), &cfg.Heartbeat); err != nil {
		return err
	}

	for flag, dst := range map[string]*int{
		"send-buffer":       &cfg.SendBuffer,
		"read-buffer":       &cfg.ReadBuffer,
		"max-frames":        &cfg.MaxFrames,
		"max-pending-bytes": &cfg.MaxPendingBytes,
	} {
		if err := s.setIntFromString(flag, env(envName(flag)), dst); err != nil {
			return err
		}
	}

	return nil
}

// envName turns a flag name into its environment suffix: max-frames -> MAX_FRAMES.
func envName(flag string) string {
	b := []byte(flag)
	for i, c := range b {
		switch {
		case c == '-':
			b[i] = '_'
		case 'a' <= c && c <= 'z':
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
