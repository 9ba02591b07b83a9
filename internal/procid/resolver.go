// Package procid resolves process identity (command name) from a pid.
package procid

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/filewatch/fw/internal/events"
)

// cacheEntry is a resolved name plus the moment it was read. Entries
// expire because the kernel recycles pids.
type cacheEntry struct {
	name       string
	resolvedAt time.Time
}

// Resolver looks up command names from /proc/<pid>/comm with a bounded,
// TTL-expiring LRU cache in front of the filesystem read.
type Resolver struct {
	cache    *lru.Cache
	ttl      time.Duration
	procRoot string
	now      func() time.Time
}

// NewResolver creates a resolver with the given cache size and entry
// time-to-live.
func NewResolver(size int, ttl time.Duration) (*Resolver, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("creating process name cache: %w", err)
	}
	return &Resolver{
		cache:    cache,
		ttl:      ttl,
		procRoot: "/proc",
		now:      time.Now,
	}, nil
}

// Name returns the command name for a pid. The second return value is
// false when the process table has no entry, typically because the
// process already exited.
func (r *Resolver) Name(pid uint32) (string, bool) {
	if v, ok := r.cache.Get(pid); ok {
		entry := v.(cacheEntry)
		if r.now().Sub(entry.resolvedAt) < r.ttl {
			return entry.name, true
		}
		r.cache.Remove(pid)
	}

	comm := filepath.Join(r.procRoot, fmt.Sprintf("%d", pid), "comm")
	data, err := os.ReadFile(comm)
	if err != nil {
		return "", false
	}

	name := strings.TrimSpace(string(data))
	r.cache.Add(pid, cacheEntry{name: name, resolvedAt: r.now()})
	return name, true
}

// NameOrPlaceholder returns the command name, or the placeholder used
// in output lines when resolution fails.
func (r *Resolver) NameOrPlaceholder(pid uint32) string {
	if name, ok := r.Name(pid); ok {
		return name
	}
	return events.UnknownProcess
}
