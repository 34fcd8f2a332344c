// Package poller provides the shared interval runner used by the scheduler
// and the background watcher.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Poller runs a function on a fixed interval. The first run fires
// immediately on Start; a tick that arrives while a run is still in
// flight is skipped, never queued.
type Poller struct {
	name     string
	interval time.Duration
	fn       func(context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	running atomic.Bool
	wg      sync.WaitGroup
}

// New creates a poller. fn is invoked with a context cancelled on Stop.
func New(name string, interval time.Duration, fn func(context.Context)) *Poller {
	return &Poller{name: name, interval: interval, fn: fn}
}

// Start begins polling. Calling Start on a running poller is a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(ctx, p.done)
	slog.Info("poller started", "name", p.name, "interval", p.interval)
}

// Stop cancels the ticker and returns a channel closed once the loop has
// exited and any in-flight run has drained. Stopping a stopped poller
// returns an already-closed channel.
func (p *Poller) Stop() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	p.cancel()
	p.cancel = nil
	done := p.done
	p.done = nil
	return done
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer p.wg.Wait()

	p.dispatch(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.dispatch(ctx)
		}
	}
}

// dispatch starts a run unless one is already in flight.
func (p *Poller) dispatch(ctx context.Context) {
	if !p.running.CompareAndSwap(false, true) {
		slog.Debug("poller tick skipped, previous run in flight", "name", p.name)
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.running.Store(false)
		defer func() {
			if r := recover(); r != nil {
				slog.Error("poller run panicked", "name", p.name, "panic", r)
			}
		}()
		p.fn(ctx)
	}()
}
