package dmabridge

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for dmabridge and the collaborators
// attached to a running [Session]. By default, dmabridge produces no log
// output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by dmabridge:
//   - [slog.LevelDebug]: every driver call site (EGL/GL entry point, handles)
//   - [slog.LevelInfo]: lifecycle events (driver bound, display initialized,
//     texture exported or imported, session state changes)
//   - [slog.LevelWarn]: non-fatal issues (import of unflushed content,
//     release errors during shutdown)
//
// Example:
//
//	// Enable debug-level logging for full diagnostics:
//	dmabridge.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	settersMu.Lock()
	list := make([]loggerSetter, 0, len(setters))
	for s := range setters {
		list = append(list, s)
	}
	settersMu.Unlock()
	for _, s := range list {
		s.SetLogger(l)
	}
}

// Logger returns the current logger used by dmabridge.
// Sub-packages (internal/quad, internal/x11) receive it through SetLogger
// propagation and never import this package.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by collaborators that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

var (
	settersMu sync.Mutex
	setters   = make(map[loggerSetter]struct{})
)

// attachLogger passes the current logger to v if it implements
// loggerSetter and keeps it updated until detachLogger is called.
func attachLogger(v any) {
	ls, ok := v.(loggerSetter)
	if !ok {
		return
	}
	settersMu.Lock()
	setters[ls] = struct{}{}
	settersMu.Unlock()
	ls.SetLogger(Logger())
}

func detachLogger(v any) {
	ls, ok := v.(loggerSetter)
	if !ok {
		return
	}
	settersMu.Lock()
	delete(setters, ls)
	settersMu.Unlock()
}
