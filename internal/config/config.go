// Package config holds runtime tunables parsed from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Settings are the pipeline tunables. All have working defaults; they
// exist so operators can trade memory against visibility without a
// rebuild.
type Settings struct {
	// TableCapacity caps the correlator's active-handle table.
	TableCapacity int `env:"FW_TABLE_CAP" envDefault:"4096"`
	// HandleMaxAge evicts handles whose close never arrives.
	HandleMaxAge time.Duration `env:"FW_HANDLE_MAX_AGE" envDefault:"5m"`
	// CacheSize bounds the pid-to-name cache.
	CacheSize int `env:"FW_CACHE_SIZE" envDefault:"1024"`
	// CacheTTL expires cached names, since pids are recycled.
	CacheTTL time.Duration `env:"FW_CACHE_TTL" envDefault:"30s"`
	// ReadRetries is the budget of consecutive transient read faults
	// tolerated before the pipeline gives up.
	ReadRetries int `env:"FW_READ_RETRIES" envDefault:"5"`
	// ShutdownGrace bounds how long shutdown waits for the pipeline
	// to drain before proceeding anyway.
	ShutdownGrace time.Duration `env:"FW_SHUTDOWN_GRACE" envDefault:"3s"`
	// PerfPages is the per-CPU kernel buffer size in pages.
	PerfPages int `env:"FW_PERF_PAGES" envDefault:"8"`
}

// ParseSettings reads Settings from the environment.
func ParseSettings() (*Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("parsing settings from environment: %w", err)
	}
	if s.TableCapacity <= 0 {
		return nil, fmt.Errorf("FW_TABLE_CAP must be positive, got %d", s.TableCapacity)
	}
	if s.CacheSize <= 0 {
		return nil, fmt.Errorf("FW_CACHE_SIZE must be positive, got %d", s.CacheSize)
	}
	return &s, nil
}

// ParseExtensions splits a comma-separated extension list, dropping
// whitespace and empty entries. Normalization (case, leading dot) is
// the filter's job.
func ParseExtensions(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
