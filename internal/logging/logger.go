// Package logging provides the diagnostic sink injected into the pipeline.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the diagnostic collaborator every component receives.
// kv holds alternating keys and values.
type Logger interface {
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// Config captures options for a zerolog-backed logger.
type Config struct {
	Level     string    // "debug", "info", "warn", "error", "disabled"
	Output    io.Writer // defaults to os.Stderr
	Component string    // attached to every entry
	Console   bool      // human-readable output instead of JSON lines
}

// ZeroLogger adapts zerolog to Logger.
type ZeroLogger struct {
	zl zerolog.Logger
}

// New builds a logger from cfg.
func New(cfg Config) *ZeroLogger {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	}

	w := cfg.Output
	if w == nil {
		w = os.Stderr
	}
	if cfg.Console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	ctx := zerolog.New(w).Level(level).With().Timestamp()
	if cfg.Component != "" {
		ctx = ctx.Str(FieldComponent, cfg.Component)
	}
	return &ZeroLogger{zl: ctx.Logger()}
}

// Nop returns a logger that discards everything.
func Nop() *ZeroLogger {
	return &ZeroLogger{zl: zerolog.Nop()}
}

// WithComponent returns a child logger annotated with the given component name.
func (l *ZeroLogger) WithComponent(component string) *ZeroLogger {
	return &ZeroLogger{zl: l.zl.With().Str(FieldComponent, component).Logger()}
}

// Zerolog exposes the underlying logger.
func (l *ZeroLogger) Zerolog() zerolog.Logger {
	return l.zl
}

func (l *ZeroLogger) Info(msg string, kv ...any)  { emit(l.zl.Info(), msg, kv) }
func (l *ZeroLogger) Warn(msg string, kv ...any)  { emit(l.zl.Warn(), msg, kv) }
func (l *ZeroLogger) Error(msg string, kv ...any) { emit(l.zl.Error(), msg, kv) }

func emit(ev *zerolog.Event, msg string, kv []any) {
	if ev == nil {
		return
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		switch v := kv[i+1].(type) {
		case error:
			if key == FieldError {
				ev = ev.Err(v)
			} else {
				ev = ev.AnErr(key, v)
			}
		case string:
			ev = ev.Str(key, v)
		case int:
			ev = ev.Int(key, v)
		case bool:
			ev = ev.Bool(key, v)
		case []string:
			ev = ev.Strs(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
}
