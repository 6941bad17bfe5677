// Package logging builds the prefixed loggers shared by the daemon,
// bridge, and dashboard. When a log file is configured, output is rotated
// with lumberjack; otherwise it goes to stderr.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/plantrack/plantrack/internal/config"
)

// Writer returns the shared log destination for cfg. The caller owns the
// returned closer; closing a stderr writer is a no-op.
func Writer(cfg config.LogConfig) io.WriteCloser {
	if cfg.File == "" {
		return nopCloser{os.Stderr}
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
}

// New returns a logger writing to w with the component prefix, e.g.
// "[bridge] ".
func New(w io.Writer, component string) *log.Logger {
	return log.New(w, "["+component+"] ", log.LstdFlags)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
