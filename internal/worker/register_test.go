package worker

import (
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-fairness/internal/store"
)

type recordingRegistrar struct {
	workflows  []string
	activities []string
}

func funcName(fn any) string {
	name := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()
	name = name[strings.LastIndex(name, ".")+1:]
	return strings.TrimSuffix(name, "-fm")
}

func (r *recordingRegistrar) RegisterWorkflow(w any) {
	r.workflows = append(r.workflows, funcName(w))
}

func (r *recordingRegistrar) RegisterActivity(a any) {
	r.activities = append(r.activities, funcName(a))
}

func TestRegisterAll(t *testing.T) {
	r := &recordingRegistrar{}
	acts := RegisterAll(r, store.NewMemoryBlobStore(), nil, nil)
	require.NotNil(t, acts)

	assert.Equal(t, []string{"FairnessAuditWorkflow"}, r.workflows)
	assert.Equal(t, []string{"PrepareDataset", "TrainBaseline", "TrainMitigated", "EvaluateModel"}, r.activities)
}
