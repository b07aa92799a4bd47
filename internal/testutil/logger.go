package testutil

import (
	"io"
	"log/slog"
	"os"
)

// NewTestLogger returns a logger that is silent unless TEST_VERBOSE is set.
func NewTestLogger() *slog.Logger {
	if os.Getenv("TEST_VERBOSE") != "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
