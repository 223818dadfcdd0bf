package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ahrav/go-fairness/internal/dataset"
	"github.com/ahrav/go-fairness/internal/domain"
)

// DatasetStore saves and loads prepared train/test splits.
type DatasetStore struct {
	blobs BlobStore
}

// NewDatasetStore wraps blobs.
func NewDatasetStore(blobs BlobStore) *DatasetStore { return &DatasetStore{blobs: blobs} }

// Save serializes splits under a fresh datasets/<uuid>.json key.
func (s *DatasetStore) Save(ctx context.Context, splits *dataset.Splits) (domain.ArtifactRef, error) {
	if splits == nil || splits.Train == nil || splits.Test == nil {
		return domain.ArtifactRef{}, fmt.Errorf("%w: both splits are required", domain.ErrInvalidRequest)
	}
	b, err := json.Marshal(splits)
	if err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("marshal dataset: %w", err)
	}
	return s.blobs.Put(ctx, b, domain.ArtifactDataset, "datasets/"+uuid.NewString()+".json")
}

// Load restores and validates the splits saved under ref.
func (s *DatasetStore) Load(ctx context.Context, ref domain.ArtifactRef) (*dataset.Splits, error) {
	if ref.Kind != domain.ArtifactDataset {
		return nil, fmt.Errorf("%w: %q is not a dataset", domain.ErrInvalidArtifactKind, ref.Kind)
	}
	b, err := s.blobs.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	var splits dataset.Splits
	if err := json.Unmarshal(b, &splits); err != nil {
		return nil, fmt.Errorf("unmarshal dataset %s: %w", ref.Key, err)
	}
	if splits.Train == nil || splits.Test == nil {
		return nil, fmt.Errorf("%w: dataset %s is incomplete", domain.ErrInvalidRequest, ref.Key)
	}
	if err := splits.Train.Validate(); err != nil {
		return nil, err
	}
	if err := splits.Test.Validate(); err != nil {
		return nil, err
	}
	return &splits, nil
}
