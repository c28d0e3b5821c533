package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu  sync.RWMutex
	log *slog.Logger
)

// Init builds the process logger. Development environments get a debug-level
// text handler, everything else JSON at info level.
func Init(env string) *slog.Logger {
	return InitWithWriter(env, os.Stdout)
}

// InitWithWriter is Init with an explicit output, used by tests and the CLI.
func InitWithWriter(env string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	if isDevelopment(env) {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	l := slog.New(handler)
	mu.Lock()
	log = l
	mu.Unlock()
	slog.SetDefault(l)
	return l
}

// GetLogger returns the process logger, initialising a development logger on first use.
func GetLogger() *slog.Logger {
	mu.RLock()
	l := log
	mu.RUnlock()
	if l == nil {
		return Init("development")
	}
	return l
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// With returns the process logger with extra fields.
func With(args ...any) *slog.Logger {
	return GetLogger().With(args...)
}

// Error returns an "error" attribute, or an empty attribute for nil so callers
// can pass it unconditionally.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func isDevelopment(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "dev", "development", "local", "test":
		return true
	}
	return false
}

func Debug(msg string, args ...any) { GetLogger().Debug(msg, args...) }

func Info(msg string, args ...any) { GetLogger().Info(msg, args...) }

func Warn(msg string, args ...any) { GetLogger().Warn(msg, args...) }
