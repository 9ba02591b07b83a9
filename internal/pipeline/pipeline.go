// Package pipeline drives the consumer loop that turns backend records
// into emitted lines.
//
// One logical thread of control per pipeline: the only suspension
// point is the backend's blocking read, and correlator, filter and
// emitter are synchronous order-preserving transforms over the single
// event stream. A Pipeline is single-pass; build a fresh one against a
// fresh backend to restart.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/filewatch/fw/internal/backend"
	"github.com/filewatch/fw/internal/correlator"
	"github.com/filewatch/fw/internal/emitter"
	"github.com/filewatch/fw/internal/events"
	"github.com/filewatch/fw/internal/filter"
)

// Stats is a snapshot of the pipeline counters. Observability only,
// never used for control decisions.
type Stats struct {
	Consumed        uint64
	DroppedOverflow uint64
	LiveHandles     int
	StaleEvicted    uint64
}

// Pipeline wires backend → correlator → filter → emitter.
type Pipeline struct {
	backend    backend.Backend
	corr       *correlator.Correlator
	filterCfg  filter.Config
	expression *filter.Expression
	emitter    emitter.Emitter

	retryBudget int

	consumed atomic.Uint64
	dropped  atomic.Uint64
}

// New creates a pipeline. clock and resolver feed the correlator;
// expression may be nil.
func New(
	b backend.Backend,
	clock correlator.Clock,
	resolver correlator.Resolver,
	corrCfg correlator.Config,
	filterCfg filter.Config,
	expression *filter.Expression,
	em emitter.Emitter,
	retryBudget int,
) (*Pipeline, error) {
	p := &Pipeline{
		backend:     b,
		filterCfg:   filterCfg,
		expression:  expression,
		emitter:     em,
		retryBudget: retryBudget,
	}

	corr, err := correlator.New(corrCfg, clock, resolver, p)
	if err != nil {
		return nil, err
	}
	p.corr = corr
	return p, nil
}

// HandleCanonical applies the filter stages and emits. It implements
// correlator.Handler; only emitter errors propagate.
func (p *Pipeline) HandleCanonical(ev *events.CanonicalEvent) error {
	if !p.filterCfg.Match(ev.Path) {
		return nil
	}
	if p.expression != nil && !p.expression.Match(ev) {
		return nil
	}
	return p.emitter.Emit(ev)
}

// Run consumes records until the context is cancelled, the backend is
// exhausted, or a fatal fault occurs. Cancellation and exhaustion
// return nil; everything else returns the fault.
func (p *Pipeline) Run(ctx context.Context) error {
	retriesLeft := p.retryBudget

	for {
		rec, err := p.backend.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				return nil
			case errors.Is(err, backend.ErrExhausted):
				return nil
			case errors.Is(err, backend.ErrFatal) || errors.Is(err, backend.ErrNotStarted):
				return fmt.Errorf("event source failed: %w", err)
			default:
				retriesLeft--
				if retriesLeft < 0 {
					return fmt.Errorf("event source failed after %d retries: %w", p.retryBudget, err)
				}
				log.Printf("Warning: transient read fault (%d retries left): %v", retriesLeft, err)
				continue
			}
		}
		retriesLeft = p.retryBudget

		if rec.Lost > 0 {
			p.dropped.Add(rec.Lost)
			log.Printf("Warning: kernel buffer overflow, %d events dropped (total %d)", rec.Lost, p.dropped.Load())
		}
		if rec.Event == nil {
			continue
		}

		p.consumed.Add(1)
		if err := p.corr.Handle(rec.Event); err != nil {
			return fmt.Errorf("emitting event: %w", err)
		}
	}
}

// Discard drops buffered correlation state without synthesizing
// closes. Call after Run returns, before the backend stops.
func (p *Pipeline) Discard() {
	p.corr.Discard()
}

// Stats returns a snapshot of the counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Consumed:        p.consumed.Load(),
		DroppedOverflow: p.dropped.Load(),
		LiveHandles:     p.corr.Live(),
		StaleEvicted:    p.corr.StaleEvicted(),
	}
}
