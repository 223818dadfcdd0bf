package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ahrav/go-fairness/internal/domain"
)

// DefaultRedisPrefix namespaces artifact keys.
const DefaultRedisPrefix = "fairness:"

// RedisBlobStore keeps blobs in Redis so pipeline stages running on
// different workers can share models and datasets.
type RedisBlobStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisBlobStore.
type RedisOption func(*RedisBlobStore)

// WithPrefix overrides DefaultRedisPrefix.
func WithPrefix(p string) RedisOption { return func(s *RedisBlobStore) { s.prefix = p } }

// WithTTL expires stored blobs after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) RedisOption { return func(s *RedisBlobStore) { s.ttl = ttl } }

// NewRedisBlobStore wraps an existing client.
func NewRedisBlobStore(client redis.Cmdable, opts ...RedisOption) *RedisBlobStore {
	s := &RedisBlobStore{client: client, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisBlobStore) key(k string) string { return s.prefix + k }

// Get fetches the blob; a missing key maps to ErrArtifactNotFound.
func (s *RedisBlobStore) Get(ctx context.Context, ref domain.ArtifactRef) ([]byte, error) {
	if ref.Key == "" {
		return nil, ErrArtifactKeyEmpty
	}
	b, err := s.client.Get(ctx, s.key(ref.Key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", ref.Key, err)
	}
	return b, nil
}

// Put writes the blob with the configured TTL.
func (s *RedisBlobStore) Put(
	ctx context.Context, content []byte, kind domain.ArtifactKind, key string,
) (domain.ArtifactRef, error) {
	if key == "" {
		return domain.ArtifactRef{}, ErrArtifactKeyEmpty
	}
	if err := s.client.Set(ctx, s.key(key), content, s.ttl).Err(); err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("redis set %s: %w", key, err)
	}
	return domain.ArtifactRef{Key: key, Size: int64(len(content)), Kind: kind}, nil
}

// Exists checks key presence.
func (s *RedisBlobStore) Exists(ctx context.Context, ref domain.ArtifactRef) (bool, error) {
	if ref.Key == "" {
		return false, ErrArtifactKeyEmpty
	}
	n, err := s.client.Exists(ctx, s.key(ref.Key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", ref.Key, err)
	}
	return n > 0, nil
}

// Delete removes the key.
func (s *RedisBlobStore) Delete(ctx context.Context, ref domain.ArtifactRef) error {
	if ref.Key == "" {
		return ErrArtifactKeyEmpty
	}
	if err := s.client.Del(ctx, s.key(ref.Key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", ref.Key, err)
	}
	return nil
}
