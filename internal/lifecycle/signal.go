// Package lifecycle ties a run's context to process shutdown signals.
package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WithSignals returns a child of parent that is cancelled on SIGTERM or
// SIGINT. onSignal, when non-nil, is called with the signal before the
// context is cancelled. The returned cancel func stops signal delivery
// and must be called once the run ends.
func WithSignals(parent context.Context, onSignal func(os.Signal)) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		select {
		case sig := <-sigChan:
			if onSignal != nil {
				onSignal(sig)
			}
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
