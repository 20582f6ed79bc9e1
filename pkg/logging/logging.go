// Package logging provides the process-wide structured logger used by the
// storage and execution core. It wraps the standard library's log/slog,
// matching the reference codebase's own choice of structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Level names a logging verbosity independent of slog's own level type, so
// callers of this package do not need to import log/slog directly.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Config configures the process-wide logger.
type Config struct {
	Level      Level
	OutputPath string // empty means stdout
	JSON       bool
}

var (
	mu      sync.RWMutex
	logger  *slog.Logger
	logFile *os.File
	inited  bool
)

// Init installs the process-wide logger. Calling it more than once without
// an intervening Close is a programmer error and panics, matching the
// fail-fast style used elsewhere for misuse of singletons.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	if inited {
		panic("logging: Init called twice without Close")
	}

	var w io.Writer = os.Stdout
	if cfg.OutputPath != "" {
		f, err := os.OpenFile(cfg.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		w = f
		logFile = f
	}

	level := levelToSlog(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger = slog.New(handler)
	inited = true
	return nil
}

func levelToSlog(l Level) slog.Level {
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

// Get returns the process-wide logger, lazily defaulting to an stdout text
// logger at Info level if Init was never called.
func Get() *slog.Logger {
	mu.Lock()
	if !inited {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
		inited = true
	}
	l := logger
	mu.Unlock()
	return l
}

// Close releases the log file, if one was opened, and resets the singleton
// so Init may be called again (used by tests between runs).
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	inited = false
	logger = nil
	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		return err
	}
	return nil
}
