package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ahrav/go-fairness/internal/classifier"
	"github.com/ahrav/go-fairness/internal/domain"
	"github.com/ahrav/go-fairness/internal/reductions"
)

// ErrUnsupportedModel is returned for predictors the codec cannot encode.
var ErrUnsupportedModel = errors.New("unsupported model type")

const (
	modelLogistic   = "logistic"
	modelConstant   = "constant"
	modelRandomized = "randomized"
)

// modelRecord is the versioned serialized form of a predictor. Randomized
// predictors nest their candidates.
type modelRecord struct {
	Version int    `json:"version"`
	Type    string `json:"type"`

	Coefficients []float64 `json:"coefficients,omitempty"`
	Bias         float64   `json:"bias,omitempty"`
	Label        int       `json:"label,omitempty"`

	Mode       domain.PredictionMode `json:"mode,omitempty"`
	Seed       int64                 `json:"seed,omitempty"`
	Weights    []float64             `json:"weights,omitempty"`
	Candidates []modelRecord         `json:"candidates,omitempty"`
}

const modelVersion = 1

func encodeModel(p classifier.Predictor) (modelRecord, error) {
	switch m := p.(type) {
	case *classifier.LogisticRegression:
		return modelRecord{Version: modelVersion, Type: modelLogistic, Coefficients: m.Coefficients, Bias: m.Bias}, nil
	case *classifier.Constant:
		return modelRecord{Version: modelVersion, Type: modelConstant, Label: m.Label}, nil
	case *reductions.RandomizedPredictor:
		rec := modelRecord{
			Version: modelVersion,
			Type:    modelRandomized,
			Mode:    m.Mode(),
			Seed:    m.Seed(),
			Weights: m.Weights(),
		}
		for _, c := range m.Candidates() {
			cr, err := encodeModel(c)
			if err != nil {
				return modelRecord{}, err
			}
			rec.Candidates = append(rec.Candidates, cr)
		}
		return rec, nil
	default:
		return modelRecord{}, fmt.Errorf("%w: %T", ErrUnsupportedModel, p)
	}
}

func decodeModel(rec modelRecord) (classifier.Predictor, error) {
	if rec.Version != modelVersion {
		return nil, fmt.Errorf("%w: model version %d", ErrUnsupportedModel, rec.Version)
	}
	switch rec.Type {
	case modelLogistic:
		return &classifier.LogisticRegression{Coefficients: rec.Coefficients, Bias: rec.Bias}, nil
	case modelConstant:
		return &classifier.Constant{Label: rec.Label}, nil
	case modelRandomized:
		cands := make([]classifier.Predictor, len(rec.Candidates))
		for i, cr := range rec.Candidates {
			c, err := decodeModel(cr)
			if err != nil {
				return nil, err
			}
			cands[i] = c
		}
		return reductions.NewRandomizedPredictor(cands, rec.Weights, rec.Mode, rec.Seed)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, rec.Type)
	}
}

// ModelStore saves and loads predictors through a BlobStore.
type ModelStore struct {
	blobs BlobStore
}

// NewModelStore wraps blobs.
func NewModelStore(blobs BlobStore) *ModelStore { return &ModelStore{blobs: blobs} }

// Save serializes p under a fresh models/<uuid>.json key.
func (s *ModelStore) Save(ctx context.Context, p classifier.Predictor) (domain.ArtifactRef, error) {
	rec, err := encodeModel(p)
	if err != nil {
		return domain.ArtifactRef{}, err
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("marshal model: %w", err)
	}
	return s.blobs.Put(ctx, b, domain.ArtifactModel, "models/"+uuid.NewString()+".json")
}

// Load restores the predictor saved under ref.
func (s *ModelStore) Load(ctx context.Context, ref domain.ArtifactRef) (classifier.Predictor, error) {
	if ref.Kind != domain.ArtifactModel {
		return nil, fmt.Errorf("%w: %q is not a model", domain.ErrInvalidArtifactKind, ref.Kind)
	}
	b, err := s.blobs.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	var rec modelRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal model %s: %w", ref.Key, err)
	}
	return decodeModel(rec)
}
