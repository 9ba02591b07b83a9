// Package backend abstracts the source of raw file-activity events.
//
// Two variants exist: the kernel probe backend (Linux only, eBPF
// kprobes feeding a perf buffer) and the synthetic backend (scripted
// or generated events, no privileges required). The pipeline is
// written against the Backend interface and behaves identically over
// either variant.
package backend

import (
	"context"
	"errors"

	"github.com/filewatch/fw/internal/events"
)

// Record is one unit delivered by a backend poll: an event, a count of
// events the kernel dropped since the previous poll, or both.
type Record struct {
	// Event is the decoded notification, nil for a drop-only record.
	Event *events.RawEvent
	// Lost is the number of events the kernel-side buffer discarded
	// because user space was not draining fast enough.
	Lost uint64
}

var (
	// ErrAlreadyStarted is returned by Start when the backend is
	// running and Stop has not been called.
	ErrAlreadyStarted = errors.New("backend already started")

	// ErrNotStarted is returned by Next before a successful Start.
	ErrNotStarted = errors.New("backend not started")

	// ErrUnsupported is returned by Start on platforms without the
	// kernel probe mechanism.
	ErrUnsupported = errors.New("kernel probe backend not supported on this platform")

	// ErrExhausted is returned by Next when a finite synthetic script
	// has been fully delivered. The pipeline treats it as a clean end
	// of stream.
	ErrExhausted = errors.New("event source exhausted")

	// ErrFatal marks unrecoverable backend faults. Errors wrapping it
	// terminate the pipeline; any other Next error is retryable.
	ErrFatal = errors.New("fatal backend error")
)

// Backend supplies raw file-activity events.
//
// Start attaches to the event source. A failed Start is fatal for the
// instance: callers must build a fresh backend rather than retry.
// Calling Start again without an intervening Stop fails with
// ErrAlreadyStarted. The filter config is a push-down hint only; a
// backend may ignore it and the userspace filter stage remains the
// single source of correctness.
//
// Next blocks until a record is available, the context is cancelled
// (returning the context error), or a fault occurs. Cancellation is
// observed cooperatively: a blocked read completes or times out on its
// own first, so shutdown latency is bounded but non-zero.
//
// Stop releases all resources and is idempotent.
type Backend interface {
	Start(cfg Filter) error
	Next(ctx context.Context) (Record, error)
	Stop() error
}

// Filter is the kernel-side filtering hint passed at Start.
type Filter interface {
	Empty() bool
	Extensions() []string
}
