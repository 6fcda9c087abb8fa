// internal/device/gate.go
package device

import "context"

// Gate serializes access to the single physical device. Every automation
// session must hold the gate for its full duration; concurrent workflows
// queue here rather than interleaving taps on screen.
type Gate struct {
	slot chan struct{}
}

// NewGate creates a one-slot gate.
func NewGate() *Gate {
	return &Gate{slot: make(chan struct{}, 1)}
}

// Acquire blocks until the device is free or the context is cancelled.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees the device. Must be called exactly once per successful
// Acquire.
func (g *Gate) Release() {
	select {
	case <-g.slot:
	default:
	}
}
