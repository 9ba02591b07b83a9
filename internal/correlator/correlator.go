package correlator

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/filewatch/fw/internal/events"
)

// Handler receives canonical events in arrival order.
type Handler interface {
	HandleCanonical(ev *events.CanonicalEvent) error
}

// Clock converts kernel monotonic timestamps to wall-clock time.
type Clock interface {
	MonotonicToWallClock(monotonicNanos uint64) time.Time
}

// Resolver supplies a command name for a pid, or a placeholder.
type Resolver interface {
	NameOrPlaceholder(pid uint32) string
}

// handleKey identifies a tracked descriptor. It is unique only while
// the descriptor stays open; the kernel may reuse it immediately after
// close, so entries are removed atomically with the match.
type handleKey struct {
	pid uint32
	fd  int32
}

// openHandle is the tracked state between an open and its close.
type openHandle struct {
	path     string
	procName string
	openedAt time.Time
}

// Config tunes the correlator's handle table.
type Config struct {
	// Capacity caps the table. At capacity the oldest entry is
	// evicted and counted as stale; the table never grows unbounded
	// even against processes that open and never close.
	Capacity int
	// MaxAge evicts handles whose close never arrived. Zero disables
	// age-based eviction.
	MaxAge time.Duration
}

// Correlator runs the per-(pid, fd) open/close state machine. Events
// are processed strictly in arrival order; no reordering by timestamp
// is attempted, so ordering across CPUs is approximate by design.
type Correlator struct {
	mu      sync.Mutex
	handles *lru.Cache
	// counting gates the eviction callback: lru fires it on every
	// Remove, but only capacity and age evictions are stale.
	counting bool

	maxAge    time.Duration
	lastSweep time.Time

	clock    Clock
	resolver Resolver
	handler  Handler
	now      func() time.Time

	staleEvicted atomic.Uint64
}

// New creates a correlator delivering canonical events to handler.
func New(cfg Config, clock Clock, resolver Resolver, handler Handler) (*Correlator, error) {
	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("handle table capacity must be positive, got %d", cfg.Capacity)
	}

	c := &Correlator{
		maxAge:   cfg.MaxAge,
		clock:    clock,
		resolver: resolver,
		handler:  handler,
		now:      time.Now,
	}
	c.counting = true

	handles, err := lru.NewWithEvict(cfg.Capacity, func(_, _ interface{}) {
		if c.counting {
			c.staleEvicted.Add(1)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("creating handle table: %w", err)
	}
	c.handles = handles
	c.lastSweep = c.now()
	return c, nil
}

// Handle processes one raw event. Only handler errors propagate:
// unmatched closes and identity failures are absorbed into the
// canonical event itself.
func (c *Correlator) Handle(raw *events.RawEvent) error {
	switch raw.Action {
	case events.ActionOpen:
		return c.handleOpen(raw)
	case events.ActionClose:
		return c.handleClose(raw)
	default:
		// Unknown action from a future probe revision; skip.
		return nil
	}
}

func (c *Correlator) handleOpen(raw *events.RawEvent) error {
	when := c.clock.MonotonicToWallClock(raw.Timestamp)
	name := c.resolver.NameOrPlaceholder(raw.PID)

	c.mu.Lock()
	c.handles.Add(handleKey{pid: raw.PID, fd: raw.FD}, &openHandle{
		path:     raw.Path,
		procName: name,
		openedAt: when,
	})
	c.sweepLocked()
	c.mu.Unlock()

	return c.handler.HandleCanonical(&events.CanonicalEvent{
		Path:     raw.Path,
		ProcName: name,
		PID:      raw.PID,
		Action:   events.ActionOpen,
		When:     when,
	})
}

func (c *Correlator) handleClose(raw *events.RawEvent) error {
	key := handleKey{pid: raw.PID, fd: raw.FD}
	when := c.clock.MonotonicToWallClock(raw.Timestamp)

	c.mu.Lock()
	var matched *openHandle
	if v, ok := c.handles.Peek(key); ok {
		matched = v.(*openHandle)
		c.counting = false
		c.handles.Remove(key)
		c.counting = true
	}
	c.sweepLocked()
	c.mu.Unlock()

	if matched != nil {
		return c.handler.HandleCanonical(&events.CanonicalEvent{
			Path:     matched.path,
			ProcName: matched.procName,
			PID:      raw.PID,
			Action:   events.ActionClose,
			When:     when,
		})
	}

	// No tracked open: the descriptor predates monitoring or the open
	// was dropped. Forward with the best-effort path rather than hide
	// the partial visibility.
	return c.handler.HandleCanonical(&events.CanonicalEvent{
		Path:      raw.Path,
		ProcName:  c.resolver.NameOrPlaceholder(raw.PID),
		PID:       raw.PID,
		Action:    events.ActionClose,
		Unmatched: true,
		When:      when,
	})
}

// sweepInterval throttles age sweeps; eviction by age need not be
// prompt, only bounded.
const sweepInterval = 10 * time.Second

// sweepLocked evicts handles older than MaxAge. The table is touched
// on insert only, so LRU order matches insertion order and GetOldest
// walks handles oldest-first.
func (c *Correlator) sweepLocked() {
	if c.maxAge <= 0 {
		return
	}
	now := c.now()
	if now.Sub(c.lastSweep) < sweepInterval {
		return
	}
	c.lastSweep = now

	for {
		_, v, ok := c.handles.GetOldest()
		if !ok || now.Sub(v.(*openHandle).openedAt) <= c.maxAge {
			return
		}
		c.handles.RemoveOldest()
	}
}

// Live returns the number of handles currently tracked.
func (c *Correlator) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handles.Len()
}

// StaleEvicted returns how many handles were discarded without a
// matching close, by capacity pressure or age.
func (c *Correlator) StaleEvicted() uint64 {
	return c.staleEvicted.Load()
}

// Discard drops all tracked handles without emitting anything and
// without counting them as stale. Used at shutdown: files still open
// then may be genuinely open, so no close is synthesized.
func (c *Correlator) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counting = false
	c.handles.Purge()
	c.counting = true
}
