// Package telemetry wires up the structured logging this module uses for
// background-worker and set lifecycle events. It is a thin layer over
// github.com/joeycumines/logiface and its log/slog adapter
// (github.com/joeycumines/logiface-slog), following the construction
// pattern that adapter documents (a LoggerFactory.New call configured with
// a slog handler option).
package telemetry

import (
	"io"
	"log/slog"

	"github.com/joeycumines/logiface"
	islog "github.com/joeycumines/logiface-slog"
)

// Logger is the type every back-end's Config.Logger field holds.
type Logger = logiface.Logger[*islog.Event]

var factory logiface.LoggerFactory[*islog.Event]

// Discard returns a Logger that writes nowhere. It's the default used when
// a Config doesn't supply one.
func Discard() *Logger {
	return factory.New(islog.WithSlogHandler(slog.NewTextHandler(io.Discard, nil)))
}

// NewSlog returns a Logger writing through the given slog.Handler, for
// callers who want background-worker diagnostics surfaced.
func NewSlog(handler slog.Handler) *Logger {
	return factory.New(islog.WithSlogHandler(handler))
}

// Named log events. The first four are emitted by internal/background;
// EventThreadRegistered and EventThreadUnregistered are defined but not
// emitted anywhere in this module. Kept as constants so the set of events a
// caller might filter/assert on is discoverable.
const (
	EventRestructureStart   = "ordset.background.restructure_start"
	EventRestructureDone    = "ordset.background.restructure_done"
	EventGraceWait          = "ordset.background.grace_wait"
	EventFreelistReclaimed  = "ordset.background.freelist_reclaimed"
	EventThreadRegistered   = "ordset.thread_registered"
	EventThreadUnregistered = "ordset.thread_unregistered"
)
