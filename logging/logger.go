// Package logging builds the process slog logger
package logging

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// LogDir and LogFileName locate the debug log of interactive runs
	LogDir      = "logs"
	LogFileName = "critter.log"
)

// New creates a text logger on w
// The "error" key is written as "err" across the codebase
func New(level slog.Level, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}))
}

// NewNop returns a logger that discards everything
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps debug/info/warn/error to a level, unknown names are info
func ParseLevel(name string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Setup returns the logger for a run that owns the terminal
// Without debug every log line is dropped, since stdout belongs to the
// screen. With debug the log goes to dir/LogFileName and the returned file
// must be closed by the caller. The stdlib log package is redirected the
// same way so stray log.Printf calls never reach the screen
func Setup(debug bool, dir string) (*slog.Logger, *os.File, error) {
	if !debug {
		log.SetOutput(io.Discard)
		return NewNop(), nil, nil
	}
	if dir == "" {
		dir = LogDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, LogFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	return New(slog.LevelDebug, f), f, nil
}
