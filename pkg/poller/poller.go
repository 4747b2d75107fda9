// Package poller runs a fetch function on a fixed period until it is stopped.
//
// Start returns a Handle that owns the timer. Stop cancels it and waits for
// in-flight fetches, so no fetch is issued or completes after Stop returns.
// Ticks are not reentrancy guarded: a slow fetch does not delay the next one,
// and when responses overlap the last one to arrive wins.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/telelab/internal/logging"
)

// Func is one poll. Errors are logged and the loop keeps its schedule.
type Func func(ctx context.Context) error

// Handle controls a running loop.
type Handle struct {
	cancel   context.CancelFunc
	done     chan struct{}
	inflight sync.WaitGroup
	stopOnce sync.Once
}

type config struct {
	clock     Clock
	logger    *slog.Logger
	immediate bool
	name      string
}

// Option configures a loop.
type Option func(*config)

// WithClock replaces the real clock (tests).
func WithClock(c Clock) Option {
	return func(cfg *config) {
		cfg.clock = c
	}
}

// WithLogger configures a logger for failed polls.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithImmediate fires the first poll right away instead of waiting one period.
func WithImmediate() Option {
	return func(cfg *config) {
		cfg.immediate = true
	}
}

// WithName labels log records.
func WithName(name string) Option {
	return func(cfg *config) {
		cfg.name = name
	}
}

// Start launches the loop. It ends when Stop is called or ctx is cancelled.
func Start(ctx context.Context, period time.Duration, fn Func, opts ...Option) *Handle {
	cfg := config{
		clock:  RealClock{},
		logger: logging.NewNop(),
		name:   "poll",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	ticker := cfg.clock.NewTicker(period)
	go func() {
		defer close(h.done)
		defer ticker.Stop()

		if cfg.immediate {
			h.fire(ctx, fn, cfg)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				h.fire(ctx, fn, cfg)
			}
		}
	}()

	return h
}

func (h *Handle) fire(ctx context.Context, fn Func, cfg config) {
	if ctx.Err() != nil {
		return
	}
	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		if err := fn(ctx); err != nil && ctx.Err() == nil {
			cfg.logger.Warn("Poll failed", "poller", cfg.name, "err", err)
		}
	}()
}

// Stop cancels the loop and waits for in-flight polls. Safe to call more than once.
func (h *Handle) Stop() {
	h.stopOnce.Do(func() {
		h.cancel()
		<-h.done
		h.inflight.Wait()
	})
}

// Done is closed once the loop has stopped scheduling polls.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Running reports whether the loop is still scheduling polls.
func (h *Handle) Running() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}
