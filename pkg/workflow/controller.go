package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/telelab/internal/logging"
	"github.com/aretw0/telelab/pkg/domain"
	"github.com/aretw0/telelab/pkg/poller"
	"github.com/aretw0/telelab/pkg/ports"
	"github.com/aretw0/telelab/pkg/truthtable"
	"github.com/google/uuid"
)

// Controller runs the experiment workflow against one device.
type Controller struct {
	id      string
	exp     domain.Experiment
	device  ports.Device
	backend ports.Backend
	inputs  []domain.Row

	base      context.Context
	generator *truthtable.Generator
	period    time.Duration
	clock     poller.Clock
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	module    *int

	locker   ports.DistributedLocker
	leaseKey string
	leaseTTL time.Duration

	// op serializes operations; mu guards the fields below it.
	op sync.Mutex

	mu      sync.Mutex
	status  domain.Status
	outputs [][]string
	handle  *poller.Handle
	unlock  ports.UnlockFunc
	renew   ports.RenewFunc
	renewer *poller.Handle
	closed  bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithID overrides the generated workflow id.
func WithID(id string) Option {
	return func(c *Controller) {
		c.id = id
	}
}

// WithLogger configures a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithHooks adds lifecycle callbacks. Repeated calls chain the hooks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = c.hooks.Merge(h)
	}
}

// WithPollInterval sets the truth table polling period.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.period = d
		}
	}
}

// WithClock replaces the clock used by the poller.
func WithClock(clock poller.Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithGenerator bounds the input table with a custom generator.
func WithGenerator(g *truthtable.Generator) Option {
	return func(c *Controller) {
		c.generator = g
	}
}

// WithModule also arms the device for module during Setup.
func WithModule(module int) Option {
	return func(c *Controller) {
		c.module = &module
	}
}

// WithContext bounds the polling loop. Cancelling ctx stops polling as Close does.
func WithContext(ctx context.Context) Option {
	return func(c *Controller) {
		c.base = ctx
	}
}

// WithLease takes an exclusive lock on key during Setup and holds it until Close,
// so two workflows never drive the same device. A failed Setup gives the lock back.
// When locker is a ports.RenewableLocker the lease is renewed every ttl/3;
// otherwise it lapses after ttl.
func WithLease(locker ports.DistributedLocker, key string, ttl time.Duration) Option {
	return func(c *Controller) {
		c.locker = locker
		c.leaseKey = key
		c.leaseTTL = ttl
	}
}

// New builds the input table for exp and returns an unconfigured Controller.
func New(exp domain.Experiment, device ports.Device, backend ports.Backend, opts ...Option) (*Controller, error) {
	c := &Controller{
		id:        uuid.NewString(),
		exp:       exp.WithDefaultLabels(),
		device:    device,
		backend:   backend,
		base:      context.Background(),
		generator: truthtable.New(),
		period:    domain.DefaultPollInterval,
		clock:     poller.RealClock{},
		logger:    logging.NewNop(),
		status:    domain.StatusUnconfigured,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.exp.Validate(); err != nil {
		return nil, err
	}
	inputs, err := c.generator.Generate(c.exp.Inputs)
	if err != nil {
		return nil, fmt.Errorf("experiment %d: %w", c.exp.ID, err)
	}
	c.inputs = inputs
	return c, nil
}

// ID returns the workflow id carried by every event.
func (c *Controller) ID() string {
	return c.id
}

// Experiment returns the descriptor the workflow runs.
func (c *Controller) Experiment() domain.Experiment {
	return c.exp
}

// Status returns the current state.
func (c *Controller) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Setup arms the device for the experiment. It is allowed again while configured,
// but not while polling.
func (c *Controller) Setup(ctx context.Context) error {
	c.op.Lock()
	defer c.op.Unlock()

	if err := c.expect("setup"); err != nil {
		return err
	}
	acquired, err := c.acquireLease(ctx)
	if err != nil {
		c.notify(ctx, "setup", err)
		return err
	}

	if err := c.configureDevice(ctx); err != nil {
		if acquired {
			c.releaseLease(ctx)
		}
		c.notify(ctx, "setup", err)
		return err
	}

	c.logger.Info("Device configured", "workflow_id", c.id, "experiment", c.exp.ID)
	c.transition(ctx, domain.StatusConfigured)
	return nil
}

func (c *Controller) configureDevice(ctx context.Context) error {
	if c.module != nil {
		if err := c.device.SetModule(ctx, domain.ModuleConfig{Module: *c.module}); err != nil {
			return fmt.Errorf("failed to set module: %w", err)
		}
	}
	if err := c.device.SetExperiment(ctx, c.exp.Config()); err != nil {
		return fmt.Errorf("failed to configure experiment: %w", err)
	}
	return nil
}

// Start commands the device to compute the truth table and begins polling for it.
func (c *Controller) Start(ctx context.Context) error {
	c.op.Lock()
	defer c.op.Unlock()

	if err := c.expect("start"); err != nil {
		return err
	}
	if err := c.device.UpdateTruthTable(ctx); err != nil {
		err = fmt.Errorf("failed to start truth table update: %w", err)
		c.notify(ctx, "start", err)
		return err
	}

	// The status flips before the first tick can land.
	c.mu.Lock()
	from := c.status
	c.status = domain.StatusPolling
	c.outputs = nil
	c.mu.Unlock()

	handle := poller.Start(c.base, c.period, c.poll,
		poller.WithClock(c.clock),
		poller.WithLogger(c.logger),
		poller.WithName("truth_table"),
	)
	c.mu.Lock()
	c.handle = handle
	c.mu.Unlock()

	c.logger.Info("Polling started", "workflow_id", c.id, "period", c.period)
	c.stateChanged(ctx, from, domain.StatusPolling)
	return nil
}

// Restart stops polling and discards the output rows.
func (c *Controller) Restart(ctx context.Context) error {
	c.op.Lock()
	defer c.op.Unlock()

	if err := c.expect("restart"); err != nil {
		return err
	}
	c.stopPolling()

	c.mu.Lock()
	c.outputs = nil
	c.mu.Unlock()

	c.transition(ctx, domain.StatusConfigured)
	return nil
}

// Send submits the current output rows. ErrNoResults is returned, without a
// request, when there are none. Failures are reported and may be retried.
func (c *Controller) Send(ctx context.Context) error {
	c.op.Lock()
	defer c.op.Unlock()

	c.mu.Lock()
	rows := cloneRows(c.outputs)
	c.mu.Unlock()

	if len(rows) == 0 {
		c.notify(ctx, "send", domain.ErrNoResults)
		return domain.ErrNoResults
	}

	err := c.backend.Submit(ctx, domain.Submission{ExperimentID: c.exp.ID, TruthTable: rows})
	if err != nil {
		err = fmt.Errorf("failed to submit results: %w", err)
		c.notify(ctx, "send", err)
	} else {
		c.logger.Info("Results submitted", "workflow_id", c.id, "experiment", c.exp.ID, "rows", len(rows))
	}

	if c.hooks.OnSubmit != nil {
		c.hooks.OnSubmit(ctx, &domain.SubmitEvent{
			EventBase:    c.event(domain.EventSubmit),
			ExperimentID: c.exp.ID,
			Rows:         len(rows),
			Err:          err,
		})
	}
	return err
}

// Close stops polling and releases the device lease. Safe to call more than once.
func (c *Controller) Close() error {
	c.op.Lock()
	defer c.op.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	polling := c.status == domain.StatusPolling
	c.mu.Unlock()

	if polling {
		c.stopPolling()
		c.transition(c.base, domain.StatusConfigured)
	}
	c.releaseLease(c.base)
	return nil
}

// Snapshot returns a copy of the state for display.
func (c *Controller) Snapshot() domain.Snapshot {
	c.mu.Lock()
	status := c.status
	outputs := cloneRows(c.outputs)
	c.mu.Unlock()

	snap := domain.Snapshot{
		ID:         c.id,
		Experiment: c.exp,
		Status:     status,
		Inputs:     slices.Clone(c.inputs),
		Outputs:    outputs,
	}
	rows, err := truthtable.Pair(c.inputs, outputs, c.exp.Outputs)
	snap.Rows = rows
	if err != nil {
		snap.Misaligned = err.Error()
	}
	return snap
}

func (c *Controller) poll(ctx context.Context) error {
	start := time.Now()
	rows, err := c.device.TruthTable(ctx)
	if err == nil {
		c.mu.Lock()
		if c.status == domain.StatusPolling {
			c.outputs = rows
		}
		c.mu.Unlock()
	}

	if c.hooks.OnPoll != nil && ctx.Err() == nil {
		c.hooks.OnPoll(ctx, &domain.PollEvent{
			EventBase: c.event(domain.EventPoll),
			Rows:      len(rows),
			Duration:  time.Since(start),
			Err:       err,
		})
	}
	return err
}

// stopPolling waits for in-flight polls, so no output is written after it returns.
func (c *Controller) stopPolling() {
	c.mu.Lock()
	handle := c.handle
	c.handle = nil
	c.mu.Unlock()

	if handle != nil {
		handle.Stop()
	}
}

// acquireLease reports whether this call took the lease, as opposed to already holding it.
func (c *Controller) acquireLease(ctx context.Context) (bool, error) {
	if c.locker == nil {
		return false, nil
	}
	c.mu.Lock()
	if c.unlock != nil {
		c.mu.Unlock()
		return false, nil
	}
	// A renewer left over from a lost lease.
	stale := c.renewer
	c.renewer = nil
	c.mu.Unlock()
	if stale != nil {
		stale.Stop()
	}

	var (
		unlock ports.UnlockFunc
		renew  ports.RenewFunc
		err    error
	)
	if rl, ok := c.locker.(ports.RenewableLocker); ok {
		unlock, renew, err = rl.LockRenewable(ctx, c.leaseKey, c.leaseTTL)
	} else {
		unlock, err = c.locker.Lock(ctx, c.leaseKey, c.leaseTTL)
	}
	if err != nil {
		return false, fmt.Errorf("device %s is busy: %w", c.leaseKey, err)
	}

	c.mu.Lock()
	c.unlock = unlock
	c.renew = renew
	c.mu.Unlock()

	if renew != nil && c.leaseTTL > 0 {
		renewer := poller.Start(c.base, c.leaseTTL/3, c.renewLease,
			poller.WithClock(c.clock),
			poller.WithLogger(c.logger),
			poller.WithName("device_lease"),
		)
		c.mu.Lock()
		c.renewer = renewer
		c.mu.Unlock()
	}
	return true, nil
}

// renewLease extends the lease. A lost lease is reported once and forgotten,
// so the next Setup competes for the device again.
func (c *Controller) renewLease(ctx context.Context) error {
	c.mu.Lock()
	renew := c.renew
	c.mu.Unlock()
	if renew == nil {
		return nil
	}

	err := renew(ctx, c.leaseTTL)
	if err == nil || ctx.Err() != nil {
		return nil
	}
	if errors.Is(err, domain.ErrLeaseLost) {
		c.mu.Lock()
		lost := c.renew != nil
		c.unlock = nil
		c.renew = nil
		c.mu.Unlock()
		if lost {
			c.notify(ctx, "lease", err)
		}
		return nil
	}
	return err
}

// releaseLease stops renewal and gives the lock back. Safe without a lease.
func (c *Controller) releaseLease(ctx context.Context) {
	c.mu.Lock()
	renewer := c.renewer
	unlock := c.unlock
	c.renewer = nil
	c.unlock = nil
	c.renew = nil
	c.mu.Unlock()

	if renewer != nil {
		renewer.Stop()
	}
	if unlock != nil {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			c.logger.Warn("Failed to release device lease (will expire via TTL)", "key", c.leaseKey, "err", err)
		}
	}
}

// expect returns ErrInvalidTransition unless the workflow is open and op may leave its status.
func (c *Controller) expect(op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("%w: %s after close", domain.ErrInvalidTransition, op)
	}
	if !slices.Contains(allowedFrom(op), c.status) {
		return fmt.Errorf("%w: %s while %s", domain.ErrInvalidTransition, op, c.status)
	}
	return nil
}

func (c *Controller) transition(ctx context.Context, to domain.Status) {
	c.mu.Lock()
	from := c.status
	c.status = to
	c.mu.Unlock()
	c.stateChanged(ctx, from, to)
}

func (c *Controller) stateChanged(ctx context.Context, from, to domain.Status) {
	if from == to || c.hooks.OnStateChange == nil {
		return
	}
	c.hooks.OnStateChange(ctx, &domain.StateEvent{
		EventBase: c.event(domain.EventStateChange),
		From:      from,
		To:        to,
	})
}

func (c *Controller) notify(ctx context.Context, op string, err error) {
	c.logger.Error("Workflow operation failed", "workflow_id", c.id, "op", op, "err", err)
	if c.hooks.OnNotify == nil {
		return
	}
	c.hooks.OnNotify(ctx, &domain.NotifyEvent{
		EventBase: c.event(domain.EventNotify),
		Operation: op,
		Message:   err.Error(),
		Err:       err,
	})
}

func (c *Controller) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp:  time.Now(),
		Type:       t,
		WorkflowID: c.id,
	}
}

func cloneRows(rows [][]string) [][]string {
	if rows == nil {
		return nil
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = slices.Clone(r)
	}
	return out
}
