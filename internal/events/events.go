// Package events defines the event types flowing through the monitoring pipeline.
package events

import (
	"fmt"
	"time"
)

// Action is the kind of file operation an event describes.
type Action uint32

const (
	// ActionOpen marks a file-open notification.
	ActionOpen Action = iota + 1
	// ActionClose marks a file-close notification.
	ActionClose
)

// String returns the action keyword used in emitted lines.
func (a Action) String() string {
	switch a {
	case ActionOpen:
		return "opened"
	case ActionClose:
		return "closed"
	default:
		return fmt.Sprintf("action(%d)", uint32(a))
	}
}

// UnknownProcess is the placeholder name used when process identity
// resolution fails (the process may already have exited).
const UnknownProcess = "<unknown>"

// RawEvent is a single backend-native open or close notification.
// It is immutable once produced by a backend.
type RawEvent struct {
	// PID is the process that performed the operation.
	PID uint32
	// FD is the file descriptor involved. Only unique together with
	// PID, and only while the descriptor stays open.
	FD int32
	// Timestamp is kernel monotonic time in nanoseconds since boot.
	Timestamp uint64
	// Action is the operation kind.
	Action Action
	// Path is the path fragment captured in the kernel. It may be
	// truncated or relative; close events often carry an empty path.
	Path string
}

// CanonicalEvent is the correlated, normalized record that crosses the
// filter and emitter boundary.
type CanonicalEvent struct {
	Path     string
	ProcName string
	PID      uint32
	Action   Action
	// Unmatched is set on a close that had no tracked open, either
	// because the descriptor predates monitoring or because the open
	// notification was dropped.
	Unmatched bool
	When      time.Time
}

// timeLayout is the emitted timestamp format. It is part of the
// line-oriented output contract and must stay stable within a release.
const timeLayout = "2006-01-02 15:04:05 MST"

// Line renders the event in the fixed output layout:
//
//	timestamp | name (pid) | action | path
func (e *CanonicalEvent) Line() string {
	name := e.ProcName
	if name == "" {
		name = UnknownProcess
	}
	suffix := ""
	if e.Unmatched {
		suffix = " [unmatched]"
	}
	return fmt.Sprintf("%s | %s (%d) | %s | %s%s",
		e.When.UTC().Format(timeLayout), name, e.PID, e.Action, e.Path, suffix)
}
