package logging

import (
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// Version returns the module version the binary was built from, or "dev".
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// LogBuildInfo writes one startup line describing the running binary.
func LogBuildInfo(logger zerolog.Logger, name string) {
	event := logger.Info().
		Str("version", Version()).
		Str("go", runtime.Version()).
		Str("platform", runtime.GOOS+"/"+runtime.GOARCH)

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision", "vcs.time", "vcs.modified":
				event = event.Str(s.Key, s.Value)
			}
		}
	}

	event.Msg(name + " starting")
}
