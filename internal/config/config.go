// Package config loads telelab settings from a YAML or JSON file and TELELAB_* environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/telelab/pkg/domain"
	"github.com/aretw0/telelab/pkg/persistence/middleware"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. TELELAB_STORE_DRIVER.
const EnvPrefix = "TELELAB_"

// DefaultPath is read when no file is given.
const DefaultPath = "telelab.yaml"

// Config holds every setting of the CLI and library.
type Config struct {
	APIURL            string        `mapstructure:"api_url" yaml:"api_url"`
	DeviceURL         string        `mapstructure:"device_url" yaml:"device_url"`
	DescriptorPath    string        `mapstructure:"descriptor_path" yaml:"descriptor_path"`
	PollInterval      time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	InputPollInterval time.Duration `mapstructure:"input_poll_interval" yaml:"input_poll_interval"`
	MaxInputs         int           `mapstructure:"max_inputs" yaml:"max_inputs"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	Store             StoreConfig   `mapstructure:"store" yaml:"store"`
	Log               LogConfig     `mapstructure:"log" yaml:"log"`
	MetricsAddr       string        `mapstructure:"metrics_addr" yaml:"metrics_addr"`
}

// StoreConfig selects the session store.
type StoreConfig struct {
	Driver        string        `mapstructure:"driver" yaml:"driver"` // memory, file or redis
	Path          string        `mapstructure:"path" yaml:"path"`
	Profile       string        `mapstructure:"profile" yaml:"profile"`
	RedisAddr     string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db" yaml:"redis_db"`
	Prefix        string        `mapstructure:"prefix" yaml:"prefix"`
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl"`
	// EncryptionKey enables AES-256-GCM encryption of stored values (64 hex digits or base64).
	EncryptionKey string   `mapstructure:"encryption_key" yaml:"encryption_key"`
	FallbackKeys  []string `mapstructure:"fallback_keys" yaml:"fallback_keys,omitempty"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		APIURL:            "http://localhost:8000/api/",
		DeviceURL:         "http://192.168.4.1",
		DescriptorPath:    "experiment",
		PollInterval:      domain.DefaultPollInterval,
		InputPollInterval: domain.DefaultInputPollInterval,
		MaxInputs:         domain.DefaultMaxInputs,
		RequestTimeout:    10 * time.Second,
		Store: StoreConfig{
			Driver:    "file",
			Path:      ".telelab/sessions",
			Profile:   "default",
			RedisAddr: "localhost:6379",
			Prefix:    "telelab:",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path (YAML unless it ends in .json) over the defaults and applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	raw, err := readFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := decode(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if err := decode(envOverrides(os.LookupEnv), &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid environment override: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	return raw, nil
}

// envOverrides maps TELELAB_STORE_REDIS_ADDR to {"store": {"redis_addr": ...}}.
func envOverrides(lookup func(string) (string, bool)) map[string]any {
	out := map[string]any{}
	for _, key := range keys(reflect.TypeOf(Config{}), "") {
		name := EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		val, ok := lookup(name)
		if !ok {
			continue
		}
		parts := strings.Split(key, ".")
		m := out
		for _, p := range parts[:len(parts)-1] {
			next, ok := m[p].(map[string]any)
			if !ok {
				next = map[string]any{}
				m[p] = next
			}
			m = next
		}
		m[parts[len(parts)-1]] = val
	}
	return out
}

// keys lists the dotted mapstructure keys of t.
func keys(t reflect.Type, prefix string) []string {
	var out []string
	for i := range t.NumField() {
		f := t.Field(i)
		name := f.Tag.Get("mapstructure")
		if name == "" || name == "-" {
			continue
		}
		if f.Type.Kind() == reflect.Struct && f.Type != reflect.TypeOf(time.Duration(0)) {
			out = append(out, keys(f.Type, prefix+name+".")...)
			continue
		}
		out = append(out, prefix+name)
	}
	return out
}

func decode(input map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			millisecondsHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// millisecondsHook reads bare numbers as milliseconds for duration fields, so
// "poll_interval: 3000" means three seconds.
func millisecondsHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch v := data.(type) {
	case int:
		return time.Duration(v) * time.Millisecond, nil
	case int64:
		return time.Duration(v) * time.Millisecond, nil
	case float64:
		return time.Duration(v * float64(time.Millisecond)), nil
	case string:
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Duration(ms) * time.Millisecond, nil
		}
	}
	return data, nil
}

// Validate checks the settings that would otherwise fail late.
func (c Config) Validate() error {
	for name, raw := range map[string]string{"api_url": c.APIURL, "device_url": c.DeviceURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}
	if c.PollInterval <= 0 || c.InputPollInterval <= 0 {
		return fmt.Errorf("poll intervals must be positive")
	}
	if c.MaxInputs < 0 {
		return fmt.Errorf("max_inputs must not be negative")
	}
	switch c.Store.Driver {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("unknown store driver %q (want memory, file or redis)", c.Store.Driver)
	}
	if c.Store.EncryptionKey == "" && len(c.Store.FallbackKeys) > 0 {
		return fmt.Errorf("store.fallback_keys requires store.encryption_key")
	}
	for _, k := range append([]string{c.Store.EncryptionKey}, c.Store.FallbackKeys...) {
		if k == "" {
			continue
		}
		if _, err := middleware.ParseKey(k); err != nil {
			return fmt.Errorf("store: %w", err)
		}
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
