package emitter

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/filewatch/fw/internal/events"
)

func canonical(path string, action events.Action) *events.CanonicalEvent {
	return &events.CanonicalEvent{
		Path:     path,
		ProcName: "rustc",
		PID:      10,
		Action:   action,
		When:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestLineEmitter_PreservesOrder(t *testing.T) {
	var buf bytes.Buffer
	e := NewLineEmitter(&buf)

	if err := e.Emit(canonical("/tmp/a.rs", events.ActionOpen)); err != nil {
		t.Fatalf("Emit() error: %v", err)
	}
	if err := e.Emit(canonical("/tmp/a.rs", events.ActionClose)); err != nil {
		t.Fatalf("Emit() error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("wrote %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "opened | /tmp/a.rs") {
		t.Errorf("first line = %q, want the opened event", lines[0])
	}
	if !strings.Contains(lines[1], "closed | /tmp/a.rs") {
		t.Errorf("second line = %q, want the closed event", lines[1])
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("sink gone")
}

func TestLineEmitter_WriteFailure(t *testing.T) {
	e := NewLineEmitter(failingWriter{})

	if err := e.Emit(canonical("/tmp/a.rs", events.ActionOpen)); err == nil {
		t.Error("Emit() to a dead sink should fail")
	}
}
