package core

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// Logger provides structured logging capabilities
// This abstraction allows swapping logging implementations
type Logger interface {
	// Error logs an error message
	Error(args ...interface{})

	// Errorf logs a formatted error message
	Errorf(format string, args ...interface{})

	// Warn logs a warning message
	Warn(args ...interface{})

	// Warnf logs a formatted warning message
	Warnf(format string, args ...interface{})

	// Info logs an informational message
	Info(args ...interface{})

	// Infof logs a formatted informational message
	Infof(format string, args ...interface{})

	// Debug logs a debug message
	Debug(args ...interface{})

	// Debugf logs a formatted debug message
	Debugf(format string, args ...interface{})

	// WithFields returns a logger that appends the given fields to every entry
	WithFields(fields map[string]interface{}) Logger

	// WithContext returns a logger carrying values found in ctx (request id)
	WithContext(ctx context.Context) Logger
}

// Level is a logging threshold.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel parses "debug", "info", "warn" or "error" (case-insensitive).
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// LoggerConfig selects the logger implementation.
type LoggerConfig struct {
	// Format is "text" (default) or "json"
	Format string
	Level  Level
	// Output defaults to stdout for info/debug and stderr for warn/error (text),
	// or stdout for everything (json).
	Output io.Writer
}

// NewLogger builds a Logger from cfg.
func NewLogger(cfg LoggerConfig) Logger {
	if strings.EqualFold(cfg.Format, "json") {
		out := cfg.Output
		if out == nil {
			out = os.Stdout
		}
		return newJSONLogger(out, cfg.Level)
	}
	return newTextLogger(cfg.Output, cfg.Level)
}

// NewDefaultLogger creates a text logger at info level
func NewDefaultLogger() Logger {
	return newTextLogger(nil, LevelInfo)
}

// NewJSONLogger creates a JSON logger on stdout at info level
func NewJSONLogger() Logger {
	return newJSONLogger(os.Stdout, LevelInfo)
}

// textLogger implements Logger using Go's standard log package
type textLogger struct {
	errorLogger *log.Logger
	warnLogger  *log.Logger
	infoLogger  *log.Logger
	debugLogger *log.Logger
	level       Level
	fields      map[string]interface{}
}

func newTextLogger(out io.Writer, level Level) *textLogger {
	errOut, stdOut := io.Writer(os.Stderr), io.Writer(os.Stdout)
	if out != nil {
		errOut, stdOut = out, out
	}
	return &textLogger{
		errorLogger: log.New(errOut, "[ERROR] ", log.LstdFlags),
		warnLogger:  log.New(errOut, "[WARN] ", log.LstdFlags),
		infoLogger:  log.New(stdOut, "[INFO] ", log.LstdFlags),
		debugLogger: log.New(stdOut, "[DEBUG] ", log.LstdFlags),
		level:       level,
	}
}

func (l *textLogger) output(lvl Level, target *log.Logger, msg string) {
	if lvl < l.level {
		return
	}
	if len(l.fields) > 0 {
		msg += " " + formatFields(l.fields)
	}
	_ = target.Output(3, msg)
}

func (l *textLogger) Error(args ...interface{}) {
	l.output(LevelError, l.errorLogger, fmt.Sprint(args...))
}

func (l *textLogger) Errorf(format string, args ...interface{}) {
	l.output(LevelError, l.errorLogger, fmt.Sprintf(format, args...))
}

func (l *textLogger) Warn(args ...interface{}) {
	l.output(LevelWarn, l.warnLogger, fmt.Sprint(args...))
}

func (l *textLogger) Warnf(format string, args ...interface{}) {
	l.output(LevelWarn, l.warnLogger, fmt.Sprintf(format, args...))
}

func (l *textLogger) Info(args ...interface{}) {
	l.output(LevelInfo, l.infoLogger, fmt.Sprint(args...))
}

func (l *textLogger) Infof(format string, args ...interface{}) {
	l.output(LevelInfo, l.infoLogger, fmt.Sprintf(format, args...))
}

func (l *textLogger) Debug(args ...interface{}) {
	l.output(LevelDebug, l.debugLogger, fmt.Sprint(args...))
}

func (l *textLogger) Debugf(format string, args ...interface{}) {
	l.output(LevelDebug, l.debugLogger, fmt.Sprintf(format, args...))
}

func (l *textLogger) WithFields(fields map[string]interface{}) Logger {
	cp := *l
	cp.fields = mergeFields(l.fields, fields)
	return &cp
}

func (l *textLogger) WithContext(ctx context.Context) Logger {
	if id := GetRequestID(ctx); id != "" {
		return l.WithFields(map[string]interface{}{"request_id": id})
	}
	return l
}

// jsonLogger implements Logger on top of log/slog's JSON handler
type jsonLogger struct {
	logger *slog.Logger
}

func newJSONLogger(out io.Writer, level Level) *jsonLogger {
	h := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slogLevel(level)})
	return &jsonLogger{logger: slog.New(h)}
}

func slogLevel(l Level) slog.Level {
	switch l {
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

func (l *jsonLogger) Error(args ...interface{}) { l.logger.Error(fmt.Sprint(args...)) }
func (l *jsonLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}
func (l *jsonLogger) Warn(args ...interface{}) { l.logger.Warn(fmt.Sprint(args...)) }
func (l *jsonLogger) Warnf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}
func (l *jsonLogger) Info(args ...interface{}) { l.logger.Info(fmt.Sprint(args...)) }
func (l *jsonLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}
func (l *jsonLogger) Debug(args ...interface{}) { l.logger.Debug(fmt.Sprint(args...)) }
func (l *jsonLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *jsonLogger) WithFields(fields map[string]interface{}) Logger {
	keys := sortedKeys(fields)
	attrs := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		attrs = append(attrs, k, fields[k])
	}
	return &jsonLogger{logger: l.logger.With(attrs...)}
}

func (l *jsonLogger) WithContext(ctx context.Context) Logger {
	if id := GetRequestID(ctx); id != "" {
		return &jsonLogger{logger: l.logger.With("request_id", id)}
	}
	return l
}

func mergeFields(a, b map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func formatFields(fields map[string]interface{}) string {
	keys := sortedKeys(fields)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(parts, " ")
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
