package logging

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Adapter implements the netframe Logger method set on top of zerolog.
// Arguments are alternating key/value pairs, as with log/slog.
type Adapter struct {
	logger zerolog.Logger
}

// NewAdapter wraps an existing zerolog.Logger.
func NewAdapter(logger zerolog.Logger) *Adapter {
	return &Adapter{logger: logger}
}

// Debug logs msg at debug level with args as key/value fields.
func (a *Adapter) Debug(msg string, args ...any) { a.log(a.logger.Debug(), msg, args) }

// Info logs msg at info level with args as key/value fields.
func (a *Adapter) Info(msg string, args ...any) { a.log(a.logger.Info(), msg, args) }

// Warn logs msg at warn level with args as key/value fields.
func (a *Adapter) Warn(msg string, args ...any) { a.log(a.logger.Warn(), msg, args) }

// Error logs msg at error level with args as key/value fields.
func (a *Adapter) Error(msg string, args ...any) { a.log(a.logger.Error(), msg, args) }

// Logger returns the underlying zerolog.Logger.
func (a *Adapter) Logger() zerolog.Logger {
	return a.logger
}

func (a *Adapter) log(event *zerolog.Event, msg string, args []any) {
	if event == nil {
		return
	}
	event.Fields(fieldList(args)).Msg(msg)
}

// fieldList renders Stringers such as net.Addr as text; zerolog would
// otherwise marshal their struct fields. A trailing key without a value is
// kept under "!BADKEY", matching slog.
func fieldList(args []any) []any {
	out := make([]any, 0, len(args)+1)
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			out = append(out, "!BADKEY", args[i])
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		out = append(out, key, fieldValue(args[i+1]))
	}
	return out
}

func fieldValue(v any) any {
	switch v := v.(type) {
	case nil, error, time.Duration:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return v
	}
}
