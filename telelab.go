package telelab

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/telelab/internal/logging"
	httpadapter "github.com/aretw0/telelab/pkg/adapters/http"
	"github.com/aretw0/telelab/pkg/adapters/memory"
	"github.com/aretw0/telelab/pkg/domain"
	"github.com/aretw0/telelab/pkg/iotester"
	"github.com/aretw0/telelab/pkg/ports"
	"github.com/aretw0/telelab/pkg/session"
	"github.com/aretw0/telelab/pkg/truthtable"
	"github.com/aretw0/telelab/pkg/workflow"
)

// Version is overridden at build time with -ldflags "-X github.com/aretw0/telelab.Version=...".
var Version = "0.1.0-dev"

const (
	// DefaultDeviceURL is the access point address of the lab device.
	DefaultDeviceURL = "http://192.168.4.1"
	// DefaultAPIURL is the practicum backend base.
	DefaultAPIURL = "http://localhost:8000/api/"
	// DefaultLeaseTTL bounds how long a crashed workflow keeps the device locked.
	DefaultLeaseTTL = 5 * time.Minute
)

// Client is the high-level entry point for the telelab library.
// It wires the session store, the device and backend clients and builds workflows.
type Client struct {
	deviceURL      string
	apiURL         string
	descriptorPath string
	timeout        time.Duration
	httpClient     *http.Client
	pollInterval   time.Duration
	maxInputs      int
	leaseTTL       time.Duration

	store   ports.SessionStore
	locker  ports.DistributedLocker
	catalog domain.Catalog
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	closers []io.Closer

	device  ports.Device
	backend ports.Backend
	session *session.Manager
}

// Option defines a functional option for configuring the Client.
type Option func(*Client)

// WithDeviceURL sets the device base URL.
func WithDeviceURL(u string) Option {
	return func(c *Client) {
		c.deviceURL = u
	}
}

// WithAPIURL sets the backend base URL.
func WithAPIURL(u string) Option {
	return func(c *Client) {
		c.apiURL = u
	}
}

// WithDescriptorPath selects "experiment" or "experiments" for descriptor lookups.
func WithDescriptorPath(p string) Option {
	return func(c *Client) {
		c.descriptorPath = p
	}
}

// WithRequestTimeout bounds every remote call.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the transport shared by the device and backend clients.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithPollInterval sets the truth table polling period of new workflows.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = d
	}
}

// WithMaxInputs bounds the input count accepted from descriptors.
func WithMaxInputs(n int) Option {
	return func(c *Client) {
		c.maxInputs = n
	}
}

// WithStore injects the session store. Defaults to an in-memory store.
func WithStore(store ports.SessionStore) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithLocker enables device leases and cross-process session locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(c *Client) {
		c.locker = locker
	}
}

// WithLeaseTTL overrides DefaultLeaseTTL.
func WithLeaseTTL(d time.Duration) Option {
	return func(c *Client) {
		c.leaseTTL = d
	}
}

// WithCatalog replaces the module catalog.
func WithCatalog(catalog domain.Catalog) Option {
	return func(c *Client) {
		c.catalog = catalog
	}
}

// WithLifecycleHooks registers observability hooks on every workflow.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Client) {
		c.hooks = c.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDevice injects a device implementation, bypassing the HTTP client.
func WithDevice(d ports.Device) Option {
	return func(c *Client) {
		c.device = d
	}
}

// WithBackend injects a backend implementation, bypassing the HTTP client.
func WithBackend(b ports.Backend) Option {
	return func(c *Client) {
		c.backend = b
	}
}

// WithCloser registers a resource released by Close, such as a redis connection.
func WithCloser(closer io.Closer) Option {
	return func(c *Client) {
		c.closers = append(c.closers, closer)
	}
}

// New creates a Client. Nothing is contacted until an operation is called.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		deviceURL:      DefaultDeviceURL,
		apiURL:         DefaultAPIURL,
		descriptorPath: httpadapter.DefaultDescriptorPath,
		pollInterval:   domain.DefaultPollInterval,
		maxInputs:      domain.DefaultMaxInputs,
		leaseTTL:       DefaultLeaseTTL,
		catalog:        domain.DefaultCatalog(),
		logger:         logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = memory.NewStore()
	}

	sessionOpts := []session.Option{
		session.WithLogger(c.logger),
		session.WithCatalog(c.catalog),
	}
	if c.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(c.locker))
	}
	c.session = session.NewManager(c.store, sessionOpts...)

	httpOpts := []httpadapter.Option{httpadapter.WithLogger(c.logger)}
	if c.timeout > 0 {
		httpOpts = append(httpOpts, httpadapter.WithTimeout(c.timeout))
	}
	if c.httpClient != nil {
		httpOpts = append(httpOpts, httpadapter.WithHTTPClient(c.httpClient))
	}

	if c.device == nil {
		device, err := httpadapter.NewDeviceClient(c.deviceURL, httpOpts...)
		if err != nil {
			return nil, fmt.Errorf("device: %w", err)
		}
		c.device = device
	}
	if c.backend == nil {
		backendOpts := append(httpOpts,
			httpadapter.WithTokenSource(c.session.Token),
			httpadapter.WithDescriptorPath(c.descriptorPath),
		)
		backend, err := httpadapter.NewBackendClient(c.apiURL, backendOpts...)
		if err != nil {
			return nil, fmt.Errorf("backend: %w", err)
		}
		c.backend = backend
	}

	c.logger.Debug("Client Initialized", "device_url", c.deviceURL, "api_url", c.apiURL)
	return c, nil
}

// Login authenticates with a student id and password and stores the credential.
func (c *Client) Login(ctx context.Context, studentID, password string) (domain.Credentials, error) {
	return c.session.Login(ctx, c.backend, domain.Login{StudentID: studentID, Password: password})
}

// Authenticate exchanges a practicum credential and stores the result.
func (c *Client) Authenticate(ctx context.Context, credential string) (domain.Credentials, error) {
	return c.session.Authenticate(ctx, c.backend, credential)
}

// Logout forgets the stored credential and module.
func (c *Client) Logout(ctx context.Context) error {
	return c.session.Logout(ctx)
}

// SelectModule remembers the module used by the next workflows.
func (c *Client) SelectModule(ctx context.Context, module int) error {
	return c.session.SelectModule(ctx, module)
}

// Catalog returns the selectable modules.
func (c *Client) Catalog() domain.Catalog {
	return c.catalog
}

// Experiment fetches the descriptor of an experiment from the backend.
func (c *Client) Experiment(ctx context.Context, id int) (domain.Experiment, error) {
	if _, err := c.session.Credentials(ctx); err != nil {
		return domain.Experiment{}, err
	}
	return c.backend.Experiment(ctx, id)
}

// Workflow loads the experiment descriptor and returns an unconfigured controller.
// The caller must be authenticated and must Close the controller.
// ctx bounds the controller's polling loop.
func (c *Client) Workflow(ctx context.Context, experimentID int, opts ...workflow.Option) (*workflow.Controller, error) {
	module, err := c.session.Module(ctx)
	hasModule := err == nil
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, err
	}
	if hasModule {
		if err := c.catalog.Check(module, experimentID); err != nil {
			return nil, err
		}
	}

	exp, err := c.Experiment(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("load experiment %d: %w", experimentID, err)
	}

	base := []workflow.Option{
		workflow.WithContext(ctx),
		workflow.WithLogger(c.logger),
		workflow.WithHooks(c.hooks),
		workflow.WithPollInterval(c.pollInterval),
		workflow.WithGenerator(truthtable.New(truthtable.WithMaxInputs(c.maxInputs))),
	}
	if hasModule {
		base = append(base, workflow.WithModule(module))
	}
	if c.locker != nil {
		base = append(base, workflow.WithLease(c.locker, "device:"+c.deviceURL, c.leaseTTL))
	}
	return workflow.New(exp, c.device, c.backend, append(base, opts...)...)
}

// IOTester returns a relay and input tester bound to the device.
func (c *Client) IOTester() *iotester.Tester {
	return iotester.New(c.device, iotester.WithLogger(c.logger))
}

// Session returns the session manager.
func (c *Client) Session() *session.Manager {
	return c.session
}

// Device returns the device port.
func (c *Client) Device() ports.Device {
	return c.device
}

// Backend returns the backend port.
func (c *Client) Backend() ports.Backend {
	return c.backend
}

// Close releases registered resources.
func (c *Client) Close() error {
	var errs []error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
