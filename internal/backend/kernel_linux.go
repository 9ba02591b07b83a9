//go:build linux

package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cilium/ebpf/link"
	"github.com/cilium/ebpf/perf"
	"github.com/cilium/ebpf/rlimit"

	"github.com/filewatch/fw/internal/bpf"
)

// pollInterval bounds how long a blocked read waits before rechecking
// the context. This is the backend's shutdown latency ceiling.
const pollInterval = 200 * time.Millisecond

// Kernel is the production backend. It attaches kprobes to the file
// open and close entry paths system-wide and reads events from a
// kernel-owned perf buffer that drops and counts on overflow instead
// of blocking the producer.
type Kernel struct {
	perfPages int

	started bool
	objs    bpf.FileMonitorObjects
	links   []link.Link
	reader  *perf.Reader
}

// NewKernel creates an unstarted kernel backend. perfPages is the
// per-CPU buffer size in pages.
func NewKernel(perfPages int) *Kernel {
	return &Kernel{perfPages: perfPages}
}

// Start loads the probe programs and attaches them. The filter hint is
// accepted but not pushed into the kernel: the probe programs capture
// every open and close, and filtering happens in user space.
func (k *Kernel) Start(_ Filter) error {
	if k.started {
		return ErrAlreadyStarted
	}

	if err := rlimit.RemoveMemlock(); err != nil {
		return fmt.Errorf("%w: removing memlock rlimit: %v", ErrFatal, err)
	}

	if err := bpf.LoadFileMonitorObjects(&k.objs, nil); err != nil {
		return fmt.Errorf("%w: loading BPF objects: %v", ErrFatal, err)
	}

	attachments := []struct {
		name   string
		attach func() (link.Link, error)
	}{
		{"open entry kprobe", func() (link.Link, error) {
			return link.Kprobe("do_sys_openat2", k.objs.HandleOpenEntry, nil)
		}},
		{"open exit kretprobe", func() (link.Link, error) {
			return link.Kretprobe("do_sys_openat2", k.objs.HandleOpenExit, nil)
		}},
		{"close kprobe", func() (link.Link, error) {
			return link.Kprobe("close_fd", k.objs.HandleClose, nil)
		}},
	}
	for _, a := range attachments {
		l, err := a.attach()
		if err != nil {
			k.teardown()
			return fmt.Errorf("%w: attaching %s: %v", ErrFatal, a.name, err)
		}
		k.links = append(k.links, l)
	}

	reader, err := perf.NewReader(k.objs.Events, k.perfPages*os.Getpagesize())
	if err != nil {
		k.teardown()
		return fmt.Errorf("%w: opening perf buffer: %v", ErrFatal, err)
	}
	k.reader = reader

	k.started = true
	return nil
}

// Next reads one record from the perf buffer. Lost-sample counts are
// surfaced as drop-only records; decode failures are retryable.
func (k *Kernel) Next(ctx context.Context) (Record, error) {
	if !k.started {
		return Record{}, ErrNotStarted
	}

	for {
		if err := ctx.Err(); err != nil {
			return Record{}, err
		}

		k.reader.SetDeadline(time.Now().Add(pollInterval))
		rec, err := k.reader.Read()
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if errors.Is(err, perf.ErrClosed) {
				return Record{}, fmt.Errorf("%w: perf buffer closed", ErrFatal)
			}
			return Record{}, fmt.Errorf("reading perf buffer: %w", err)
		}

		if rec.LostSamples > 0 {
			return Record{Lost: rec.LostSamples}, nil
		}

		ev, err := bpf.Decode(rec.RawSample)
		if err != nil {
			return Record{}, fmt.Errorf("decoding perf record: %w", err)
		}
		return Record{Event: ev}, nil
	}
}

// Stop detaches the probes and releases the buffer. Safe to call more
// than once.
func (k *Kernel) Stop() error {
	if !k.started {
		return nil
	}
	k.started = false

	var errs []error
	if k.reader != nil {
		if err := k.reader.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing perf buffer: %w", err))
		}
		k.reader = nil
	}
	for _, l := range k.links {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("detaching probe: %w", err))
		}
	}
	k.links = nil
	if err := k.objs.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing BPF objects: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// teardown releases whatever Start managed to acquire before failing.
func (k *Kernel) teardown() {
	for _, l := range k.links {
		_ = l.Close() //nolint:errcheck // Best-effort cleanup in error path
	}
	k.links = nil
	_ = k.objs.Close() //nolint:errcheck // Best-effort cleanup in error path
}
