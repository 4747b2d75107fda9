// Package iotester drives the device relays and watches its raw inputs.
package iotester

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/telelab/internal/logging"
	"github.com/aretw0/telelab/pkg/domain"
	"github.com/aretw0/telelab/pkg/poller"
	"github.com/aretw0/telelab/pkg/ports"
)

// Tester tracks the last known relay states of one device.
type Tester struct {
	device ports.Device
	clock  poller.Clock
	logger *slog.Logger

	mu     sync.Mutex
	relays [domain.RelayCount]bool
}

// Option configures a Tester.
type Option func(*Tester)

// WithClock replaces the clock used by Watch.
func WithClock(clock poller.Clock) Option {
	return func(t *Tester) {
		t.clock = clock
	}
}

// WithLogger configures a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tester) {
		t.logger = logger
	}
}

// New creates a Tester with every relay assumed off.
func New(device ports.Device, opts ...Option) *Tester {
	t := &Tester{
		device: device,
		clock:  poller.RealClock{},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Toggle switches relay n (1-based) to the opposite of its last known state.
// The local state only flips when the device accepts the command.
func (t *Tester) Toggle(ctx context.Context, relay int) (bool, error) {
	if relay < 1 || relay > domain.RelayCount {
		return false, fmt.Errorf("relay %d out of range 1..%d", relay, domain.RelayCount)
	}

	t.mu.Lock()
	next := !t.relays[relay-1]
	t.mu.Unlock()

	if err := t.device.SetRelay(ctx, relay, next); err != nil {
		t.logger.Error("Relay toggle failed", "relay", relay, "err", err)
		return !next, fmt.Errorf("failed to toggle relay %d: %w", relay, err)
	}

	t.mu.Lock()
	t.relays[relay-1] = next
	t.mu.Unlock()
	return next, nil
}

// Relays returns the last known relay states, relay 1 first.
func (t *Tester) Relays() []bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.relays[:])
}

// Watch polls the raw inputs every period and passes each reading to fn.
// A reading that is not exactly one value per pin is passed as nil (still loading).
// The first reading is taken immediately. Stop the returned handle to end it.
func (t *Tester) Watch(ctx context.Context, period time.Duration, fn func([]int)) *poller.Handle {
	if period <= 0 {
		period = domain.DefaultInputPollInterval
	}
	return poller.Start(ctx, period, func(ctx context.Context) error {
		in, err := t.device.Inputs(ctx)
		if err != nil {
			return err
		}
		if len(in) != domain.RelayCount {
			in = nil
		}
		fn(in)
		return nil
	},
		poller.WithClock(t.clock),
		poller.WithLogger(t.logger),
		poller.WithImmediate(),
		poller.WithName("inputs"),
	)
}
