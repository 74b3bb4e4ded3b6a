package testutil

import (
	"io"
	"log/slog"
)

// NopLogger satisfies every component's logger dependency while keeping
// test output quiet.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
