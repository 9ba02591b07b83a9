package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filewatch/fw/internal/events"
)

func sampleEvent() *events.CanonicalEvent {
	return &events.CanonicalEvent{
		Path:     "/tmp/a.rs",
		ProcName: "rustc",
		PID:      1234,
		Action:   events.ActionOpen,
		When:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile("name ==")
	assert.Error(t, err)
}

func TestCompile_NonBoolean(t *testing.T) {
	_, err := Compile("name")
	assert.Error(t, err, "non-boolean expressions should fail at compile time")
}

func TestExpression_Match(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"match on process name", `name == "rustc"`, true},
		{"reject on process name", `name == "vim"`, false},
		{"match on path prefix", `path startsWith "/tmp/"`, true},
		{"match on pid", `pid == 1234`, true},
		{"match on action", `action == "opened"`, true},
		{"unmatched flag", `!unmatched`, true},
		{"combined", `name == "rustc" && pid > 1000`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := Compile(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, expr.Match(sampleEvent()))
		})
	}
}
