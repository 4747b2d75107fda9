package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/telelab"
	"github.com/aretw0/telelab/internal/config"
	"github.com/aretw0/telelab/pkg/adapters/file"
	"github.com/aretw0/telelab/pkg/adapters/memory"
	redisadapter "github.com/aretw0/telelab/pkg/adapters/redis"
	"github.com/aretw0/telelab/pkg/observability"
	"github.com/aretw0/telelab/pkg/persistence/middleware"
	"github.com/aretw0/telelab/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Persistence is the session store selected by configuration.
// Locker and Closer are nil unless the driver provides them.
type Persistence struct {
	Store  ports.SessionStore
	Locker ports.DistributedLocker
	Closer io.Closer
}

// NewPersistence creates the session store for cfg.Driver ("memory", "file" or "redis").
// Values are encrypted when cfg.EncryptionKey is set.
func NewPersistence(cfg config.StoreConfig) (Persistence, error) {
	p, err := newPersistence(cfg)
	if err != nil || cfg.EncryptionKey == "" {
		return p, err
	}

	enc, err := encryptionConfig(cfg)
	if err != nil {
		if p.Closer != nil {
			_ = p.Closer.Close()
		}
		return Persistence{}, err
	}
	p.Store = middleware.Chain(p.Store, middleware.NewEncryptionMiddleware(enc))
	return p, nil
}

func encryptionConfig(cfg config.StoreConfig) (middleware.EncryptionConfig, error) {
	active, err := middleware.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return middleware.EncryptionConfig{}, fmt.Errorf("store.encryption_key: %w", err)
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for i, raw := range cfg.FallbackKeys {
		key, err := middleware.ParseKey(raw)
		if err != nil {
			return middleware.EncryptionConfig{}, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	return enc, nil
}

func newPersistence(cfg config.StoreConfig) (Persistence, error) {
	switch cfg.Driver {
	case "memory":
		return Persistence{Store: memory.NewStore()}, nil
	case "", "file":
		return Persistence{Store: file.New(cfg.Path, cfg.Profile)}, nil
	case "redis":
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		opts := []redisadapter.Option{
			redisadapter.WithPrefix(cfg.Prefix),
			redisadapter.WithProfile(cfg.Profile),
		}
		if cfg.TTL > 0 {
			opts = append(opts, redisadapter.WithTTL(cfg.TTL))
		}
		return Persistence{
			Store:  redisadapter.NewFromClient(client, opts...),
			Locker: redisadapter.NewLocker(client, cfg.Prefix),
			Closer: client,
		}, nil
	default:
		return Persistence{}, fmt.Errorf("unknown store driver %q (want memory, file or redis)", cfg.Driver)
	}
}

// NewClient initializes a telelab client with standard CLI conventions.
// Workflow events are logged through logger.
func NewClient(cfg config.Config, logger *slog.Logger, extra ...telelab.Option) (*telelab.Client, error) {
	p, err := NewPersistence(cfg.Store)
	if err != nil {
		return nil, err
	}

	opts := []telelab.Option{
		telelab.WithDeviceURL(cfg.DeviceURL),
		telelab.WithAPIURL(cfg.APIURL),
		telelab.WithDescriptorPath(cfg.DescriptorPath),
		telelab.WithRequestTimeout(cfg.RequestTimeout),
		telelab.WithPollInterval(cfg.PollInterval),
		telelab.WithMaxInputs(cfg.MaxInputs),
		telelab.WithStore(p.Store),
		telelab.WithLogger(logger),
		telelab.WithLifecycleHooks(observability.LogHooks(logger)),
	}
	if p.Locker != nil {
		opts = append(opts, telelab.WithLocker(p.Locker))
	}
	if p.Closer != nil {
		opts = append(opts, telelab.WithCloser(p.Closer))
	}

	client, err := telelab.New(append(opts, extra...)...)
	if err != nil {
		if p.Closer != nil {
			_ = p.Closer.Close()
		}
		return nil, fmt.Errorf("error initializing telelab: %w", err)
	}
	return client, nil
}
