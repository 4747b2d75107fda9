package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/aretw0/telelab/internal/logging"
	"github.com/aretw0/telelab/pkg/domain"
	"github.com/aretw0/telelab/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager reads and writes the session through a SessionStore.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store   ports.SessionStore
	catalog domain.Catalog

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets how long a distributed lock is held at most.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithCatalog replaces the module catalog used by SelectModule.
func WithCatalog(c domain.Catalog) Option {
	return func(m *Manager) {
		m.catalog = c
	}
}

// NewManager creates a new Session Manager with the given store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		catalog: domain.DefaultCatalog(),
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release(key) after unlocking.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// WithLock executes fn while holding the lock for key.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := m.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(key)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, key, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"key", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Authenticate exchanges a practicum credential with the backend and stores the session.
func (m *Manager) Authenticate(ctx context.Context, backend ports.Backend, credential string) (domain.Credentials, error) {
	creds, err := backend.Authenticate(ctx, credential)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("authentication failed: %w", err)
	}
	if err := m.Save(ctx, creds); err != nil {
		return domain.Credentials{}, err
	}
	m.logger.Info("Authenticated", "module", creds.Module)
	return creds, nil
}

// Login signs in with a student id and password and stores the session.
func (m *Manager) Login(ctx context.Context, backend ports.Backend, login domain.Login) (domain.Credentials, error) {
	if err := login.Validate(); err != nil {
		return domain.Credentials{}, err
	}
	creds, err := backend.Login(ctx, login)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("login failed: %w", err)
	}
	if err := m.Save(ctx, creds); err != nil {
		return domain.Credentials{}, err
	}
	m.logger.Info("Logged in", "email", login.Email())
	return creds, nil
}

// Save stores credentials (JSON-encoded) and their module.
func (m *Manager) Save(ctx context.Context, creds domain.Credentials) error {
	raw, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	return m.WithLock(ctx, domain.KeyCredentials, func(ctx context.Context) error {
		if err := m.store.Set(ctx, domain.KeyCredentials, string(raw)); err != nil {
			return fmt.Errorf("failed to store credentials: %w", err)
		}
		if err := m.store.Set(ctx, domain.KeyModule, strconv.Itoa(creds.Module)); err != nil {
			return fmt.Errorf("failed to store module: %w", err)
		}
		return nil
	})
}

// Credentials returns the stored credentials, or ErrUnauthenticated when there are none.
// A plain token stored by an older client is accepted as-is.
func (m *Manager) Credentials(ctx context.Context) (domain.Credentials, error) {
	raw, err := m.store.Get(ctx, domain.KeyCredentials)
	if errors.Is(err, domain.ErrSessionNotFound) || (err == nil && raw == "") {
		return domain.Credentials{}, domain.ErrUnauthenticated
	}
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("failed to load credentials: %w", err)
	}

	var creds domain.Credentials
	if json.Unmarshal([]byte(raw), &creds) != nil || creds.Token == "" {
		creds = domain.Credentials{Token: raw}
	}
	if module, err := m.Module(ctx); err == nil {
		creds.Module = module
	}
	return creds, nil
}

// Token returns the bearer token, or "" when nobody is logged in.
func (m *Manager) Token(ctx context.Context) (string, error) {
	creds, err := m.Credentials(ctx)
	if errors.Is(err, domain.ErrUnauthenticated) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return creds.Token, nil
}

// SelectModule records the module chosen by the user.
func (m *Manager) SelectModule(ctx context.Context, module int) error {
	if _, ok := m.catalog.Lookup(module); !ok {
		return fmt.Errorf("%w: module %d", domain.ErrUnknownSelection, module)
	}
	return m.WithLock(ctx, domain.KeyModule, func(ctx context.Context) error {
		return m.store.Set(ctx, domain.KeyModule, strconv.Itoa(module))
	})
}

// Module returns the selected module. ErrSessionNotFound means none was selected.
func (m *Manager) Module(ctx context.Context) (int, error) {
	raw, err := m.store.Get(ctx, domain.KeyModule)
	if err != nil {
		return 0, err
	}
	module, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid stored module %q: %w", raw, err)
	}
	return module, nil
}

// Logout removes the credentials and the selected module.
func (m *Manager) Logout(ctx context.Context) error {
	return m.WithLock(ctx, domain.KeyCredentials, func(ctx context.Context) error {
		for _, key := range []string{domain.KeyCredentials, domain.KeyModule} {
			if err := m.store.Delete(ctx, key); err != nil {
				return fmt.Errorf("failed to delete %s: %w", key, err)
			}
		}
		m.logger.Info("Logged out")
		return nil
	})
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}
