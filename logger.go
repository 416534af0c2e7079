package vpaint

import (
	"log/slog"
	"sync/atomic"
)

// silent discards every record; Enabled is false at all levels, so call
// sites skip attribute formatting.
var silent = slog.New(slog.DiscardHandler)

// activeLogger is read by generator workers while SetLogger may run.
var activeLogger atomic.Pointer[slog.Logger]

func init() {
	activeLogger.Store(silent)
}

// SetLogger routes the log output of vpaint and its sub-packages to l.
// Nil restores the default, which writes nothing.
//
// Levels:
//   - [slog.LevelDebug]: per-pass vertex and ray counts, estimated distances
//   - [slog.LevelInfo]: layer set creation, composite rebuilds, engine writes
//   - [slog.LevelWarn]: recovered degenerate input (flat ramp axes, vertices
//     without edges, thickness probes without hits, skipped glTF primitives)
//
// Example:
//
//	vpaint.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelWarn,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	activeLogger.Store(l)
}

// Logger returns the logger shared by every vpaint package.
func Logger() *slog.Logger {
	return activeLogger.Load()
}
