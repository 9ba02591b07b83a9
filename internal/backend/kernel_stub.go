//go:build !linux

package backend

import "context"

// Kernel is a stub on platforms without eBPF support. It lets the
// binary compile and run everywhere; Start reports the platform gap.
// The synthetic backend remains available for development and tests.
type Kernel struct{}

// NewKernel creates the stub backend.
func NewKernel(_ int) *Kernel {
	return &Kernel{}
}

// Start always fails: there is no kernel probe mechanism here.
func (k *Kernel) Start(_ Filter) error {
	return ErrUnsupported
}

// Next is unreachable after a failed Start.
func (k *Kernel) Next(_ context.Context) (Record, error) {
	return Record{}, ErrNotStarted
}

// Stop is a no-op.
func (k *Kernel) Stop() error {
	return nil
}
