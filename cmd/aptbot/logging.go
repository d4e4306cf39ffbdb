package main

import (
	"io"
	"os"

	"aptbot/internal/config"

	"github.com/rs/zerolog"
)

func newLogger(lc config.LogConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(lc.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	w := out
	if lc.Format != "json" {
		w = zerolog.ConsoleWriter{Out: out}
	}
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", config.AppName).
		Logger()
}

// openAudit returns the audit sink. An empty path means stdout.
func openAudit(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
