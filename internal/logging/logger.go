package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Log levels accepted in configuration.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// FileName is the name of the log file created inside Options.Dir.
const FileName = "autoplan.log"

// Options configures New.
type Options struct {
	// Dir is the directory for autoplan.log. Empty disables file output.
	Dir string
	// Level is the minimum level written to the file.
	Level string
	// Verbose additionally writes human-readable records at DEBUG level to
	// Stderr.
	Verbose bool
	// Stderr receives verbose output. Defaults to os.Stderr.
	Stderr io.Writer
	// Rotation controls size-based rotation of the log file.
	Rotation RotationConfig
}

// Logger is a structured logger. Child loggers created with the With*
// methods share the parent's output and are safe for concurrent use.
type Logger struct {
	logger *slog.Logger
	closer io.Closer
}

// New builds a Logger from opts. With no Dir and Verbose unset the result
// discards everything.
func New(opts Options) (*Logger, error) {
	var (
		handlers []slog.Handler
		closer   io.Closer
	)

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		rw, err := NewRotatingWriter(filepath.Join(opts.Dir, FileName), opts.Rotation)
		if err != nil {
			return nil, err
		}
		closer = rw
		handlers = append(handlers, slog.NewJSONHandler(rw, &slog.HandlerOptions{
			Level: parseLevel(opts.Level),
		}))
	}

	if opts.Verbose {
		w := opts.Stderr
		if w == nil {
			w = os.Stderr
		}
		handlers = append(handlers, slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}

	switch len(handlers) {
	case 0:
		return NopLogger(), nil
	case 1:
		return &Logger{logger: slog.New(handlers[0]), closer: closer}, nil
	default:
		return &Logger{logger: slog.New(fanout(handlers)), closer: closer}, nil
	}
}

// parseLevel converts a configured level to slog.Level, defaulting to INFO.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRun tags every record with the execution session id.
func (l *Logger) WithRun(id string) *Logger {
	return l.With("run_id", id)
}

// WithPhase tags every record with a phase index.
func (l *Logger) WithPhase(index int) *Logger {
	return l.With("phase", index)
}

// With returns a child logger carrying the given key-value pairs.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}
	return &Logger{logger: l.logger.With(args...), closer: l.closer}
}

func (l *Logger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }
func (l *Logger) Info(msg string, args ...any) { l.log(slog.LevelInfo, msg, args...) }
func (l *Logger) Warn(msg string, args ...any) { l.log(slog.LevelWarn, msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	l.logger.Log(context.Background(), level, msg, args...)
}

// Close flushes and closes the log file, if any. Child loggers share the
// file, so only the root logger should be closed.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// NopLogger returns a Logger that discards all output.
func NopLogger() *Logger {
	return &Logger{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// ParseLevel normalizes a user-supplied level, returning LevelInfo for
// anything unrecognized.
func ParseLevel(level string) string {
	switch l := strings.ToUpper(level); l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return l
	default:
		return LevelInfo
	}
}

// ValidLevels returns the accepted level names.
func ValidLevels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}

// fanout sends each record to several handlers.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
