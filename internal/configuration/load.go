package configuration

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/ahrav/go-fairness/internal/store"
)

// Environment overrides for values that must not live in config files.
const (
	EnvRedisPassword = "FAIRNESS_REDIS_PASSWORD"
	EnvRedisAddr     = "FAIRNESS_REDIS_ADDR"
	EnvTemporalHost  = "FAIRNESS_TEMPORAL_HOST_PORT"
)

// Load reads a JSON file over DefaultConfig, applies environment overrides,
// and validates the result. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := Decode(f, cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	applyEnv(cfg, os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode merges JSON from r into cfg. Unknown fields are rejected.
func Decode(r io.Reader, cfg *Config) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv(EnvRedisPassword); v != "" {
		cfg.Store.RedisPassword = v
	}
	if v := getenv(EnvRedisAddr); v != "" {
		cfg.Store.RedisAddr = v
	}
	if v := getenv(EnvTemporalHost); v != "" {
		cfg.Temporal.HostPort = v
	}
}

// NewLogger builds the process logger from the observability settings.
func NewLogger(w io.Writer, o ObservabilityConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: o.SlogLevel()}
	if o.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewBlobStore builds the configured artifact backend. The returned close
// function releases the Redis client, if any.
func NewBlobStore(c StoreConfig) (store.BlobStore, func() error, error) {
	switch c.Backend {
	case StoreMemory, "":
		return store.NewMemoryBlobStore(), func() error { return nil }, nil
	case StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		prefix := c.Prefix
		if prefix == "" {
			prefix = store.DefaultRedisPrefix
		}
		return store.NewRedisBlobStore(client, store.WithPrefix(prefix), store.WithTTL(c.TTL)), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", c.Backend)
	}
}
