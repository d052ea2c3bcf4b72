package webtex

import (
	"log/slog"

	"github.com/gogpu/webtex/internal/wlog"
)

// SetLogger configures the logger for webtex and all its sub-packages.
// By default webtex produces no log output.
//
// SetLogger is safe for concurrent use: it stores the new logger
// atomically. Pass nil to disable logging.
//
// Log levels used by webtex:
//   - [slog.LevelDebug]: per-frame diagnostics (skipped copies, cache churn)
//   - [slog.LevelInfo]: lifecycle events (device bound, capture started)
//   - [slog.LevelWarn]: non-fatal failures (device acquire, frame copy)
func SetLogger(l *slog.Logger) {
	wlog.SetLogger(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return wlog.Logger()
}
