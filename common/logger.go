package common

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record. It backs the default logger so the graph stays silent
// until the embedding engine installs its own.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger installs the logger used by every package of the render graph.
// Passing nil restores the silent default.
//
// Levels used:
//   - slog.LevelDebug: plan order, pipeline registration, resource allocation
//   - slog.LevelInfo: profiler summaries and backend selection
//   - slog.LevelWarn: aborted frames and release failures
//
// Parameters:
//   - l: the logger to install, or nil to silence logging
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the currently installed logger. It is safe for concurrent use.
//
// Returns:
//   - *slog.Logger: the active logger, never nil
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
