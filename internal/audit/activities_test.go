package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/ahrav/go-fairness/internal/classifier"
	"github.com/ahrav/go-fairness/internal/domain"
	"github.com/ahrav/go-fairness/internal/store"
	"github.com/ahrav/go-fairness/pkg/activity"
	"github.com/ahrav/go-fairness/pkg/events"
)

const testAuditID = "7d444840-9dc0-11d1-b245-5ffdce74fad2"

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestActivities(blobs store.BlobStore) (*Activities, *events.MemoryEventSink) {
	sink := events.NewMemoryEventSink()
	return NewActivities(activity.NewBaseActivities(sink), blobs, quiet), sink
}

func syntheticSpec() domain.DatasetSpec {
	spec := domain.DefaultDatasetSpec()
	spec.SyntheticSize = 600
	return spec
}

func quickReduction() domain.ReductionConfig {
	cfg := domain.DefaultReductionConfig()
	cfg.Epsilon = 0.02
	cfg.MaxIter = 10
	return cfg
}

func applicationError(t *testing.T, err error) *temporal.ApplicationError {
	t.Helper()
	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	return appErr
}

func TestActivities_FullAudit(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	acts, sink := newTestActivities(store.NewMemoryBlobStore())
	env.RegisterActivity(acts.PrepareDataset)
	env.RegisterActivity(acts.TrainBaseline)
	env.RegisterActivity(acts.TrainMitigated)
	env.RegisterActivity(acts.EvaluateModel)

	val, err := env.ExecuteActivity(acts.PrepareDataset, domain.PrepareDatasetInput{AuditID: testAuditID, Dataset: syntheticSpec()})
	require.NoError(t, err)
	var prepared domain.PrepareDatasetOutput
	require.NoError(t, val.Get(&prepared))
	assert.Equal(t, 480, prepared.TrainExamples)
	assert.Equal(t, 120, prepared.TestExamples)
	assert.Equal(t, []domain.GroupKey{"A", "B"}, prepared.Groups)
	assert.Equal(t, domain.ArtifactDataset, prepared.DatasetRef.Kind)

	val, err = env.ExecuteActivity(acts.TrainBaseline, domain.TrainBaselineInput{
		AuditID: testAuditID, DatasetRef: prepared.DatasetRef, Oracle: domain.DefaultOracleConfig(), Seed: 42,
	})
	require.NoError(t, err)
	var baseline domain.TrainModelOutput
	require.NoError(t, val.Get(&baseline))
	assert.Equal(t, domain.ModelBaseline, baseline.Model)
	assert.Nil(t, baseline.Mitigation)

	val, err = env.ExecuteActivity(acts.TrainMitigated, domain.TrainMitigatedInput{
		AuditID:        testAuditID,
		DatasetRef:     prepared.DatasetRef,
		Oracle:         domain.DefaultOracleConfig(),
		Reduction:      quickReduction(),
		PredictionMode: domain.PredictDeterministic,
	})
	require.NoError(t, err)
	var mitigated domain.TrainModelOutput
	require.NoError(t, val.Get(&mitigated))
	require.NotNil(t, mitigated.Mitigation)
	assert.Equal(t, domain.ReductionConverged, mitigated.Mitigation.State)
	assert.Positive(t, mitigated.Mitigation.Rounds)

	evaluate := func(model string, ref domain.ArtifactRef) domain.ModelEvaluation {
		val, err := env.ExecuteActivity(acts.EvaluateModel, domain.EvaluateModelInput{
			AuditID: testAuditID, Model: model, ModelRef: ref, DatasetRef: prepared.DatasetRef, Metrics: domain.DefaultMetrics,
		})
		require.NoError(t, err)
		var eval domain.ModelEvaluation
		require.NoError(t, val.Get(&eval))
		return eval
	}
	baseEval := evaluate(domain.ModelBaseline, baseline.ModelRef)
	mitEval := evaluate(domain.ModelMitigated, mitigated.ModelRef)

	assert.Equal(t, baseline.ModelRef, baseEval.ModelRef)
	assert.Equal(t, baseEval.Metrics.Groups, mitEval.Metrics.Groups)
	require.NotNil(t, baseEval.Fairness.DemographicParity)
	require.NotNil(t, mitEval.Fairness.DemographicParity)
	assert.Less(t, mitEval.Fairness.DemographicParity.Difference, baseEval.Fairness.DemographicParity.Difference)

	assert.Len(t, sink.OfType(string(domain.EventTypeModelTrained)), 2)
	assert.Len(t, sink.OfType(string(domain.EventTypeModelEvaluated)), 2)
	completed := sink.OfType(string(domain.EventTypeMitigationCompleted))
	require.Len(t, completed, 1)

	var payload domain.MitigationCompletedPayload
	require.NoError(t, json.Unmarshal(completed[0].Payload, &payload))
	assert.Equal(t, mitigated.Mitigation.Rounds, payload.Rounds)
	assert.Equal(t, domain.GenerateIdempotencyKey(testAuditID, ":mitigation:1"), completed[0].IdempotencyKey)
}

func TestActivities_ValidationIsNonRetryable(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	acts, _ := newTestActivities(store.NewMemoryBlobStore())
	env.RegisterActivity(acts.PrepareDataset)
	env.RegisterActivity(acts.TrainMitigated)

	_, err := env.ExecuteActivity(acts.PrepareDataset, domain.PrepareDatasetInput{})
	appErr := applicationError(t, err)
	assert.Equal(t, string(ErrorValidation), appErr.Type())
	assert.True(t, appErr.NonRetryable())

	bad := quickReduction()
	bad.MaxIter = 0
	_, err = env.ExecuteActivity(acts.TrainMitigated, domain.TrainMitigatedInput{
		AuditID:        testAuditID,
		DatasetRef:     domain.ArtifactRef{Key: "datasets/x.json", Kind: domain.ArtifactDataset},
		Oracle:         domain.DefaultOracleConfig(),
		Reduction:      bad,
		PredictionMode: domain.PredictDeterministic,
	})
	appErr = applicationError(t, err)
	assert.Equal(t, string(ErrorValidation), appErr.Type())
}

func TestActivities_MissingArtifactIsDataError(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	acts, _ := newTestActivities(store.NewMemoryBlobStore())
	env.RegisterActivity(acts.TrainBaseline)

	_, err := env.ExecuteActivity(acts.TrainBaseline, domain.TrainBaselineInput{
		AuditID:    testAuditID,
		DatasetRef: domain.ArtifactRef{Key: "datasets/gone.json", Kind: domain.ArtifactDataset},
		Oracle:     domain.DefaultOracleConfig(),
	})
	appErr := applicationError(t, err)
	assert.Equal(t, string(ErrorData), appErr.Type())
	assert.True(t, appErr.NonRetryable())
}

// flakyBlobs fails every write.
type flakyBlobs struct{ *store.MemoryBlobStore }

func (flakyBlobs) Put(context.Context, []byte, domain.ArtifactKind, string) (domain.ArtifactRef, error) {
	return domain.ArtifactRef{}, errors.New("connection refused")
}

func TestActivities_StoreFailureIsRetryable(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	acts, _ := newTestActivities(flakyBlobs{store.NewMemoryBlobStore()})
	env.RegisterActivity(acts.PrepareDataset)

	_, err := env.ExecuteActivity(acts.PrepareDataset, domain.PrepareDatasetInput{AuditID: testAuditID, Dataset: syntheticSpec()})
	appErr := applicationError(t, err)
	assert.Equal(t, string(ErrorStore), appErr.Type())
	assert.False(t, appErr.NonRetryable())
}

func TestActivities_DirectCallOutsideWorker(t *testing.T) {
	acts, sink := newTestActivities(store.NewMemoryBlobStore())
	ctx := context.Background()

	prepared, err := acts.PrepareDataset(ctx, domain.PrepareDatasetInput{AuditID: testAuditID, Dataset: syntheticSpec()})
	require.NoError(t, err)
	out, err := acts.TrainBaseline(ctx, domain.TrainBaselineInput{
		AuditID: testAuditID, DatasetRef: prepared.DatasetRef, Oracle: domain.DefaultOracleConfig(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ArtifactModel, out.ModelRef.Kind)

	trained := sink.OfType(string(domain.EventTypeModelTrained))
	require.Len(t, trained, 1)
	assert.Equal(t, activity.LocalWorkflowID, trained[0].WorkflowID)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorType
	}{
		{domain.ErrInvalidRequest, ErrorValidation},
		{fmt.Errorf("wrapped: %w", domain.ErrInvalidConfig), ErrorValidation},
		{domain.ErrUnknownMetric, ErrorValidation},
		{store.ErrUnsupportedModel, ErrorValidation},
		{&domain.ShapeMismatchError{Field: "labels", Want: 2, Got: 3}, ErrorData},
		{&domain.InsufficientGroupsError{Metric: "selection_rate", Groups: 1}, ErrorData},
		{store.ErrArtifactNotFound, ErrorData},
		{&domain.OracleFitError{Round: 3, Cause: errors.New("boom")}, ErrorOracle},
		{classifier.ErrDegenerateWeights, ErrorOracle},
		{errors.New("i/o timeout"), ErrorStore},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}

	err := toApplicationError("X", &domain.OracleFitError{Round: 0, Cause: errors.New("boom")}, "fit")
	appErr := applicationError(t, err)
	assert.True(t, appErr.NonRetryable())
	assert.ErrorIs(t, err, domain.ErrOracleFit)
}

func TestParseUUID(t *testing.T) {
	id, err := parseUUID("default", "tenant")
	require.NoError(t, err)
	assert.Equal(t, defaultTenant, id)

	_, err = parseUUID("not-a-uuid", "tenant")
	assert.Error(t, err)
}
