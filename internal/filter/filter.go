// Package filter decides which canonical events reach the emitter.
package filter

import (
	"sort"
	"strings"
)

// Config is an immutable set-membership predicate over file extensions.
// An empty set passes every event. Construct it once at startup; it is
// never mutated while the pipeline runs.
type Config struct {
	exts map[string]struct{}
}

// New builds a Config from raw extension strings. Entries are
// lowercased and stripped of a leading dot; empty entries are dropped.
func New(extensions []string) Config {
	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext == "" {
			continue
		}
		exts[ext] = struct{}{}
	}
	return Config{exts: exts}
}

// Empty reports whether no filtering is configured.
func (c Config) Empty() bool {
	return len(c.exts) == 0
}

// Extensions returns the configured set in sorted order.
func (c Config) Extensions() []string {
	out := make([]string, 0, len(c.exts))
	for ext := range c.exts {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Match reports whether a path passes the filter: true when the set is
// empty or when the extension of the last path segment (the part after
// its final dot, compared case-insensitively) is in the set.
func (c Config) Match(path string) bool {
	if len(c.exts) == 0 {
		return true
	}
	name := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		name = path[i+1:]
	}
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 || dot == len(name)-1 {
		return false
	}
	_, ok := c.exts[strings.ToLower(name[dot+1:])]
	return ok
}
