//go:build !nogpu

package gpu

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// discard drops every record. It backs the logger until the root
// package hands one over through Uploader.SetLogger.
type discard struct{}

func (discard) Enabled(context.Context, slog.Level) bool  { return false }
func (discard) Handle(context.Context, slog.Record) error { return nil }
func (discard) WithAttrs([]slog.Attr) slog.Handler        { return discard{} }
func (discard) WithGroup(string) slog.Handler             { return discard{} }

var (
	silent  = slog.New(discard{})
	current atomic.Pointer[slog.Logger]
)

// slogger returns the logger used by uploads and device setup.
func slogger() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	return silent
}

// setLogger installs l, or silences the package when l is nil.
func setLogger(l *slog.Logger) {
	current.Store(l)
}
