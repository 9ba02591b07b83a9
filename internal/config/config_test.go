package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSettings_Defaults(t *testing.T) {
	s, err := ParseSettings()
	require.NoError(t, err)

	assert.Equal(t, 4096, s.TableCapacity)
	assert.Equal(t, 5*time.Minute, s.HandleMaxAge)
	assert.Equal(t, 1024, s.CacheSize)
	assert.Equal(t, 30*time.Second, s.CacheTTL)
	assert.Equal(t, 5, s.ReadRetries)
	assert.Equal(t, 3*time.Second, s.ShutdownGrace)
	assert.Equal(t, 8, s.PerfPages)
}

func TestParseSettings_Overrides(t *testing.T) {
	t.Setenv("FW_TABLE_CAP", "128")
	t.Setenv("FW_HANDLE_MAX_AGE", "90s")

	s, err := ParseSettings()
	require.NoError(t, err)
	assert.Equal(t, 128, s.TableCapacity)
	assert.Equal(t, 90*time.Second, s.HandleMaxAge)
}

func TestParseSettings_RejectsNonPositiveCapacity(t *testing.T) {
	t.Setenv("FW_TABLE_CAP", "0")

	_, err := ParseSettings()
	assert.Error(t, err)
}

func TestParseExtensions(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want []string
	}{
		{"empty", "", nil},
		{"whitespace only", "   ", nil},
		{"single", "rs", []string{"rs"}},
		{"several", "rs,md,toml", []string{"rs", "md", "toml"}},
		{"padded and gappy", " rs, ,md,", []string{"rs", "md"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseExtensions(tt.csv))
		})
	}
}

func TestOTELConfig_Enabled(t *testing.T) {
	cfg := &OTELConfig{}
	assert.False(t, cfg.Enabled())

	cfg.ExporterEndpoint = "localhost:4318"
	assert.True(t, cfg.Enabled())
}

func TestOTELConfig_EndpointPriority(t *testing.T) {
	cfg := &OTELConfig{
		ExporterEndpoint: "general:4318",
		TracesEndpoint:   "traces:4318",
	}
	assert.Equal(t, "traces:4318", cfg.Endpoint())

	cfg.TracesEndpoint = ""
	assert.Equal(t, "general:4318", cfg.Endpoint())
}

func TestOTELConfig_ParseResourceAttributes(t *testing.T) {
	cfg := &OTELConfig{ResourceAttributes: "env=prod, team=sec,malformed"}

	attrs := cfg.ParseResourceAttributes()
	require.Len(t, attrs, 2)
	assert.Equal(t, "env", string(attrs[0].Key))
	assert.Equal(t, "prod", attrs[0].Value.AsString())
	assert.Equal(t, "team", string(attrs[1].Key))
}
