package telemetry

import (
	"log/slog"
	"os"
)

// installs the process-wide slog handler. verbose enables debug
// logging, which also turns on request/response dumping in
// lib/restyutil.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: verbose,
	})))
}
