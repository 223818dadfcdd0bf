package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-fairness/internal/classifier"
	"github.com/ahrav/go-fairness/internal/dataset"
	"github.com/ahrav/go-fairness/internal/domain"
	"github.com/ahrav/go-fairness/internal/reductions"
)

// exerciseBlobStore runs the shared BlobStore contract against s.
func exerciseBlobStore(t *testing.T, s BlobStore) {
	t.Helper()
	ctx := context.Background()

	ref, err := s.Put(ctx, []byte("payload"), domain.ArtifactModel, "models/a.json")
	require.NoError(t, err)
	assert.Equal(t, domain.ArtifactRef{Key: "models/a.json", Size: 7, Kind: domain.ArtifactModel}, ref)
	require.NoError(t, ref.Validate())

	got, err := s.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	ok, err := s.Exists(ctx, ref)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, ref))
	require.NoError(t, s.Delete(ctx, ref), "delete is idempotent")

	ok, err = s.Exists(ctx, ref)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Get(ctx, ref)
	assert.ErrorIs(t, err, ErrArtifactNotFound)

	empty := domain.ArtifactRef{}
	_, err = s.Get(ctx, empty)
	assert.ErrorIs(t, err, ErrArtifactKeyEmpty)
	_, err = s.Put(ctx, nil, domain.ArtifactModel, "")
	assert.ErrorIs(t, err, ErrArtifactKeyEmpty)
	_, err = s.Exists(ctx, empty)
	assert.ErrorIs(t, err, ErrArtifactKeyEmpty)
	assert.ErrorIs(t, s.Delete(ctx, empty), ErrArtifactKeyEmpty)
}

func TestMemoryBlobStore(t *testing.T) {
	exerciseBlobStore(t, NewMemoryBlobStore())

	t.Run("stored content is copied", func(t *testing.T) {
		s := NewMemoryBlobStore()
		buf := []byte("abc")
		ref, err := s.Put(context.Background(), buf, domain.ArtifactDataset, "k")
		require.NoError(t, err)
		buf[0] = 'z'

		got, err := s.Get(context.Background(), ref)
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), got)
	})
}

func TestModelStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	ms := NewModelStore(NewMemoryBlobStore())
	X := [][]float64{{-2, 1}, {-0.5, 0}, {0.5, 1}, {2, 0}}

	logit := classifier.NewLogisticRegression(domain.DefaultOracleConfig(), 1)
	require.NoError(t, logit.Fit(X, []int{0, 0, 1, 1}, nil))

	mixture, err := reductions.NewRandomizedPredictor(
		[]classifier.Predictor{logit, &classifier.Constant{Label: 1}},
		[]float64{3, 1}, domain.PredictStochastic, 9)
	require.NoError(t, err)

	tests := []struct {
		name string
		p    classifier.Predictor
	}{
		{"logistic", logit},
		{"constant", &classifier.Constant{Label: 1}},
		{"randomized", mixture},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ms.Save(ctx, tt.p)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(ref.Key, "models/"))
			assert.True(t, strings.HasSuffix(ref.Key, ".json"))
			assert.Equal(t, domain.ArtifactModel, ref.Kind)

			loaded, err := ms.Load(ctx, ref)
			require.NoError(t, err)
			assert.Equal(t, tt.p.PredictProba(X), loaded.PredictProba(X))
		})
	}

	t.Run("randomized keeps mode and seed", func(t *testing.T) {
		ref, err := ms.Save(ctx, mixture)
		require.NoError(t, err)
		loaded, err := ms.Load(ctx, ref)
		require.NoError(t, err)

		rp, ok := loaded.(*reductions.RandomizedPredictor)
		require.True(t, ok)
		assert.Equal(t, domain.PredictStochastic, rp.Mode())
		assert.Equal(t, int64(9), rp.Seed())
		assert.InDeltaSlice(t, []float64{0.75, 0.25}, rp.Weights(), 1e-12)

		fresh, err := mixture.WithMode(domain.PredictStochastic)
		require.NoError(t, err)
		assert.Equal(t, fresh.Predict(X), rp.Predict(X), "same seed, same samples")
	})
}

type opaque struct{ classifier.Constant }

func TestModelStore_Errors(t *testing.T) {
	ctx := context.Background()
	blobs := NewMemoryBlobStore()
	ms := NewModelStore(blobs)

	_, err := ms.Save(ctx, &opaque{})
	assert.ErrorIs(t, err, ErrUnsupportedModel)

	_, err = ms.Load(ctx, domain.ArtifactRef{Key: "x", Kind: domain.ArtifactDataset})
	assert.ErrorIs(t, err, domain.ErrInvalidArtifactKind)

	_, err = ms.Load(ctx, domain.ArtifactRef{Key: "missing", Kind: domain.ArtifactModel})
	assert.ErrorIs(t, err, ErrArtifactNotFound)

	ref, err := blobs.Put(ctx, []byte(`{"version":1,"type":"forest"}`), domain.ArtifactModel, "models/f.json")
	require.NoError(t, err)
	_, err = ms.Load(ctx, ref)
	assert.ErrorIs(t, err, ErrUnsupportedModel)

	ref, err = blobs.Put(ctx, []byte(`{"version":2,"type":"constant"}`), domain.ArtifactModel, "models/v.json")
	require.NoError(t, err)
	_, err = ms.Load(ctx, ref)
	assert.ErrorIs(t, err, ErrUnsupportedModel)

	ref, err = blobs.Put(ctx, []byte(`not json`), domain.ArtifactModel, "models/bad.json")
	require.NoError(t, err)
	_, err = ms.Load(ctx, ref)
	assert.Error(t, err)
}

func TestDatasetStore(t *testing.T) {
	ctx := context.Background()
	ds := NewDatasetStore(NewMemoryBlobStore())

	f, err := dataset.Synthetic(dataset.SyntheticOptions{Size: 50, Seed: 1, Shift: 0.5, Noise: 0.5})
	require.NoError(t, err)
	splits, err := dataset.Prepare(f, dataset.PrepareOptions{TestFraction: 0.2, Seed: 1, DropFirst: true})
	require.NoError(t, err)

	ref, err := ds.Save(ctx, splits)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref.Key, "datasets/"))
	assert.Equal(t, domain.ArtifactDataset, ref.Kind)

	loaded, err := ds.Load(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, splits, loaded)

	_, err = ds.Save(ctx, &dataset.Splits{})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = ds.Load(ctx, domain.ArtifactRef{Key: ref.Key, Kind: domain.ArtifactModel})
	assert.ErrorIs(t, err, domain.ErrInvalidArtifactKind)
}
