package emitter

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/filewatch/fw/internal/events"
)

// maxOpenSpans bounds the in-flight span table the same way the
// correlator bounds its handle table.
const maxOpenSpans = 4096

// spanKey approximates a file access for tracing purposes. The fd is
// gone by the time a canonical event exists, so (pid, path) is the
// closest available identity.
type spanKey struct {
	pid  uint32
	path string
}

// SpanEmitter tees events to the next emitter and additionally records
// each open/close pair as an OpenTelemetry span spanning the time the
// file was held open. It is enabled only when an OTLP endpoint is
// configured; the line output is never replaced, only supplemented.
type SpanEmitter struct {
	next   Emitter
	tracer trace.Tracer
	open   map[spanKey]trace.Span
}

// NewSpanEmitter wraps next with span recording.
func NewSpanEmitter(next Emitter, tracer trace.Tracer) *SpanEmitter {
	return &SpanEmitter{
		next:   next,
		tracer: tracer,
		open:   make(map[spanKey]trace.Span),
	}
}

// Emit records the span side of the event, then delegates. Span
// bookkeeping never fails the pipeline; only the delegate's error
// propagates.
func (e *SpanEmitter) Emit(ev *events.CanonicalEvent) error {
	switch ev.Action {
	case events.ActionOpen:
		e.startSpan(ev)
	case events.ActionClose:
		e.endSpan(ev)
	}
	return e.next.Emit(ev)
}

func (e *SpanEmitter) startSpan(ev *events.CanonicalEvent) {
	key := spanKey{pid: ev.PID, path: ev.Path}
	if prev, ok := e.open[key]; ok {
		// Reopened before the close was seen; end the stale span.
		prev.End(trace.WithTimestamp(ev.When))
	}

	_, span := e.tracer.Start(context.Background(), "file.access",
		trace.WithTimestamp(ev.When),
		trace.WithAttributes(
			attribute.String("file.path", ev.Path),
			attribute.String("process.name", ev.ProcName),
			attribute.Int("process.pid", int(ev.PID)),
		),
	)

	if len(e.open) >= maxOpenSpans {
		// Table full: record the open as a zero-length span instead
		// of tracking it.
		span.End(trace.WithTimestamp(ev.When))
		return
	}
	e.open[key] = span
}

func (e *SpanEmitter) endSpan(ev *events.CanonicalEvent) {
	key := spanKey{pid: ev.PID, path: ev.Path}
	if span, ok := e.open[key]; ok {
		delete(e.open, key)
		span.End(trace.WithTimestamp(ev.When))
		return
	}

	// Unmatched or untracked close: a zero-length span keeps the
	// access visible in the trace.
	_, span := e.tracer.Start(context.Background(), "file.access",
		trace.WithTimestamp(ev.When),
		trace.WithAttributes(
			attribute.String("file.path", ev.Path),
			attribute.String("process.name", ev.ProcName),
			attribute.Int("process.pid", int(ev.PID)),
			attribute.Bool("file.unmatched_close", ev.Unmatched),
		),
	)
	span.End(trace.WithTimestamp(ev.When))
}

// Flush ends every span still open, stamped at shutdown time taken
// from the last event or now; open files at exit simply stop being
// traced.
func (e *SpanEmitter) Flush() {
	for key, span := range e.open {
		delete(e.open, key)
		span.End()
	}
}
