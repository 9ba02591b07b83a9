package backend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/filewatch/fw/internal/events"
)

// Synthetic is a deterministic backend for tests and unprivileged
// demos. It replays a finite scripted sequence of records, or runs an
// infinite open/close generator at a bounded rate.
type Synthetic struct {
	mu      sync.Mutex
	started bool

	script []Record
	pos    int

	limiter *rate.Limiter
	seq     uint64
	stamp   func() uint64
}

// NewSynthetic creates a backend that delivers the given records in
// order and then reports ErrExhausted.
func NewSynthetic(script ...Record) *Synthetic {
	s := &Synthetic{script: script}
	s.stamp = s.counterStamp
	return s
}

// NewSyntheticGenerator creates a backend that fabricates an endless
// alternating open/close stream at eventsPerSec.
func NewSyntheticGenerator(eventsPerSec float64) *Synthetic {
	s := &Synthetic{limiter: rate.NewLimiter(rate.Limit(eventsPerSec), 1)}
	s.stamp = s.counterStamp
	return s
}

// SetTimestampFunc overrides how generated events are stamped. The
// default is a deterministic 1ms-per-event counter.
func (s *Synthetic) SetTimestampFunc(fn func() uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp = fn
}

// counterStamp advances monotonic time by 1ms per generated event.
func (s *Synthetic) counterStamp() uint64 {
	return s.seq * uint64(time.Millisecond)
}

// Start marks the backend running. The filter hint is ignored, same as
// a kernel without push-down support.
func (s *Synthetic) Start(_ Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	return nil
}

// Next delivers the next scripted or generated record.
func (s *Synthetic) Next(ctx context.Context) (Record, error) {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return Record{}, ErrNotStarted
	}

	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	if s.limiter != nil {
		return s.generate(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.script) {
		return Record{}, ErrExhausted
	}
	rec := s.script[s.pos]
	s.pos++
	return rec, nil
}

// generate fabricates the next event of an open/close pair stream.
func (s *Synthetic) generate(ctx context.Context) (Record, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.seq
	s.seq++

	action := events.ActionOpen
	if n%2 == 1 {
		action = events.ActionClose
	}
	pair := n / 2
	return Record{Event: &events.RawEvent{
		PID:       uint32(1000 + pair%64),
		FD:        int32(3 + pair%32),
		Timestamp: s.stamp(),
		Action:    action,
		Path:      fmt.Sprintf("/tmp/synthetic-%d.dat", pair),
	}}, nil
}

// Stop resets the running flag. Idempotent; a stopped backend can be
// started again, replaying from where the script left off.
func (s *Synthetic) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	return nil
}
