package app

import (
	"context"
	"sync"
	"time"
)

// graceContext is a context that outlives trigger by a fixed grace period.
type graceContext struct {
	context.Context

	cancel    context.CancelFunc
	stopAfter func() bool

	mu    sync.Mutex
	timer *time.Timer
}

// withGrace returns a context detached from parent's cancellation that is
// cancelled grace after trigger is done, or when stop is called.
func withGrace(parent, trigger context.Context, grace time.Duration) *graceContext {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	g := &graceContext{Context: ctx, cancel: cancel}
	g.stopAfter = context.AfterFunc(trigger, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		// stop may already have run
		if ctx.Err() == nil {
			g.timer = time.AfterFunc(grace, cancel)
		}
	})
	return g
}

// stop cancels the context and disarms any pending grace timer.
func (g *graceContext) stop() {
	g.cancel()
	g.stopAfter()
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
	}
}
