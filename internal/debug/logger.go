// Package debug holds the process-wide debug logger used for client
// lifecycle messages.
package debug

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

// disabledLevel is above every level slog defines.
const disabledLevel = slog.LevelError + 1

var (
	logger  atomic.Pointer[slog.Logger]
	enabled atomic.Bool
)

func init() {
	Init(false)
}

// Init enables or disables debug logging to os.Stderr.
func Init(enable bool) {
	InitWriter(enable, os.Stderr)
}

// InitWriter is Init with a custom destination.
func InitWriter(enable bool, w io.Writer) {
	level := disabledLevel
	if enable {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	logger.Store(slog.New(handler).With("component", "stardb"))
	enabled.Store(enable)
}

// Enabled reports whether debug logging is on.
func Enabled() bool {
	return enabled.Load()
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return logger.Load()
}

// Debug logs at debug level.
func Debug(msg string, args ...any) { Logger().Debug(msg, args...) }

// Info logs at info level.
func Info(msg string, args ...any) { Logger().Info(msg, args...) }

// Warn logs at warn level.
func Warn(msg string, args ...any) { Logger().Warn(msg, args...) }

// Error logs at error level.
func Error(msg string, args ...any) { Logger().Error(msg, args...) }

// With returns the current logger with args attached.
func With(args ...any) *slog.Logger {
	return Logger().With(args...)
}
