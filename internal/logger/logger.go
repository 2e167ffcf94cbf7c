// Package logger builds the application logger: a rotating file under the
// data directory, mirrored to stderr in debug mode.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"focusflow/internal/fsutil"
)

// FileName is the log file inside <data_dir>/logs.
const FileName = "focusflow.log"

// Config selects where and how much to log.
type Config struct {
	DataDir string
	// Level is a charmbracelet/log level name; empty means "warn".
	Level string
	// Debug forces debug level and copies output to Stderr.
	Debug  bool
	Stderr io.Writer
}

// New opens the log file and returns a logger writing to it. Close the
// returned io.Closer on exit.
func New(cfg Config) (*log.Logger, io.Closer, error) {
	level := log.WarnLevel
	if cfg.Level != "" {
		l, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
		level = l
	}
	if cfg.Debug {
		level = log.DebugLevel
	}

	dir := filepath.Join(cfg.DataDir, "logs")
	if err := os.MkdirAll(dir, fsutil.DirPerm); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file := &lumberjack.Logger{
		Filename:   filepath.Join(dir, FileName),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	var w io.Writer = file
	if cfg.Debug {
		stderr := cfg.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		w = io.MultiWriter(stderr, file)
	}

	l := log.NewWithOptions(w, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "focusflow",
	})
	return l, file, nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
