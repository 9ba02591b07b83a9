// Package bpf provides Go bindings for the eBPF file monitor.
package bpf

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/filewatch/fw/internal/events"
)

// Event type constants matching kernel/C conventions.
//
//nolint:revive,staticcheck // ALL_CAPS naming matches C/kernel conventions
const (
	EVENT_OPEN  = 1
	EVENT_CLOSE = 2
)

// MaxPathLen is the longest path the probe captures. Must stay in sync
// with file_monitor.bpf.c.
const MaxPathLen = 256

// FileEvent matches the C struct from file_monitor.h.
type FileEvent struct {
	Pid       uint32
	Fd        int32
	Timestamp uint64
	Type      uint32
	Pad       uint32 // Padding to keep Path 8-byte aligned
	Path      [MaxPathLen]byte
}

// EventSize is the byte length of a serialized FileEvent record.
const EventSize = 4 + 4 + 8 + 4 + 4 + MaxPathLen

// Decode parses a raw perf record sample into a RawEvent.
func Decode(raw []byte) (*events.RawEvent, error) {
	if len(raw) < EventSize {
		return nil, fmt.Errorf("short file event record: got %d bytes, want %d", len(raw), EventSize)
	}

	var ev FileEvent
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &ev); err != nil {
		return nil, fmt.Errorf("parsing file event: %w", err)
	}

	var action events.Action
	switch ev.Type {
	case EVENT_OPEN:
		action = events.ActionOpen
	case EVENT_CLOSE:
		action = events.ActionClose
	default:
		return nil, fmt.Errorf("unknown file event type %d", ev.Type)
	}

	return &events.RawEvent{
		PID:       ev.Pid,
		FD:        ev.Fd,
		Timestamp: ev.Timestamp,
		Action:    action,
		Path:      cString(ev.Path[:]),
	}, nil
}

// cString returns the bytes up to the first NUL as a string.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
