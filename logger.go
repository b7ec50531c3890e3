package yuvtex

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for yuvtex and the uploaders attached to
// live providers. By default yuvtex produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore silence.
//
// Log levels used by yuvtex:
//   - [slog.LevelDebug]: cache hits and misses, plane layouts, fence waits
//   - [slog.LevelWarn]: extraction and upload failures, fence timeouts
//
// Example:
//
//	yuvtex.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	sinksMu.Lock()
	targets := make([]loggerSetter, 0, len(sinks))
	for s := range sinks {
		targets = append(targets, s)
	}
	sinksMu.Unlock()

	for _, s := range targets {
		s.SetLogger(l)
	}
}

// Logger returns the current logger used by yuvtex.
// The gpu package calls this to share the same configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by uploaders that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

var (
	sinksMu sync.Mutex
	sinks   = make(map[loggerSetter]struct{})
)

// attachLogger hands the current logger to v and keeps it updated by
// later SetLogger calls until detachLogger.
func attachLogger(v any) {
	ls, ok := v.(loggerSetter)
	if !ok {
		return
	}
	sinksMu.Lock()
	sinks[ls] = struct{}{}
	sinksMu.Unlock()
	ls.SetLogger(Logger())
}

func detachLogger(v any) {
	ls, ok := v.(loggerSetter)
	if !ok {
		return
	}
	sinksMu.Lock()
	delete(sinks, ls)
	sinksMu.Unlock()
}
