// Package emitter serializes canonical events for consumption.
//
// The data stream goes to stderr, keeping stdout free for other
// inter-process communication. One line per event, in the exact order
// events arrive; a write failure is fatal for the pipeline because a
// monitor whose output sink is gone has nothing left to do.
package emitter

import (
	"fmt"
	"io"

	"github.com/filewatch/fw/internal/events"
)

// Emitter writes canonical events somewhere.
type Emitter interface {
	Emit(ev *events.CanonicalEvent) error
}

// LineEmitter writes the fixed textual layout, one line per event,
// unbuffered so each event is visible immediately.
type LineEmitter struct {
	w io.Writer
}

// NewLineEmitter creates an emitter writing to w.
func NewLineEmitter(w io.Writer) *LineEmitter {
	return &LineEmitter{w: w}
}

// Emit writes one line. Errors must be escalated by the caller.
func (e *LineEmitter) Emit(ev *events.CanonicalEvent) error {
	if _, err := fmt.Fprintln(e.w, ev.Line()); err != nil {
		return fmt.Errorf("writing event line: %w", err)
	}
	return nil
}
