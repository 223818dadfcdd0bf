// Package store persists fitted models and prepared datasets as opaque
// blobs. Callers hold ArtifactRefs and never inspect the serialized form.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/ahrav/go-fairness/internal/domain"
)

// Blob store errors.
var (
	ErrArtifactKeyEmpty = errors.New("artifact key cannot be empty")
	ErrArtifactNotFound = errors.New("artifact not found")
)

// BlobStore stores byte content under string keys.
type BlobStore interface {
	// Get retrieves the content of ref.
	Get(ctx context.Context, ref domain.ArtifactRef) ([]byte, error)

	// Put stores content under key and returns its reference.
	Put(ctx context.Context, content []byte, kind domain.ArtifactKind, key string) (domain.ArtifactRef, error)

	// Exists reports whether ref is present.
	Exists(ctx context.Context, ref domain.ArtifactRef) (bool, error)

	// Delete removes ref. Deleting a missing key is not an error.
	Delete(ctx context.Context, ref domain.ArtifactRef) error
}

// MemoryBlobStore keeps blobs in process memory. Suitable for tests and the
// local CLI, where every pipeline stage runs in one process.
type MemoryBlobStore struct {
	mu      sync.RWMutex
	storage map[string][]byte
}

// NewMemoryBlobStore creates an empty store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{storage: make(map[string][]byte)}
}

// Get returns a copy of the stored content.
func (s *MemoryBlobStore) Get(_ context.Context, ref domain.ArtifactRef) ([]byte, error) {
	if ref.Key == "" {
		return nil, ErrArtifactKeyEmpty
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	content, ok := s.storage[ref.Key]
	if !ok {
		return nil, ErrArtifactNotFound
	}
	return append([]byte(nil), content...), nil
}

// Put stores a copy of content.
func (s *MemoryBlobStore) Put(
	_ context.Context, content []byte, kind domain.ArtifactKind, key string,
) (domain.ArtifactRef, error) {
	if key == "" {
		return domain.ArtifactRef{}, ErrArtifactKeyEmpty
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.storage[key] = append([]byte(nil), content...)
	return domain.ArtifactRef{Key: key, Size: int64(len(content)), Kind: kind}, nil
}

// Exists reports key presence.
func (s *MemoryBlobStore) Exists(_ context.Context, ref domain.ArtifactRef) (bool, error) {
	if ref.Key == "" {
		return false, ErrArtifactKeyEmpty
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.storage[ref.Key]
	return ok, nil
}

// Delete removes the key; missing keys are ignored.
func (s *MemoryBlobStore) Delete(_ context.Context, ref domain.ArtifactRef) error {
	if ref.Key == "" {
		return ErrArtifactKeyEmpty
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.storage, ref.Key)
	return nil
}
