package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"github.com/ahrav/go-fairness/internal/domain"
)

func result(rates map[string]float64, acc float64) *domain.MetricResult {
	r := &domain.MetricResult{
		Overall: map[string]float64{"accuracy": acc, "selection_rate": 0.5},
		ByGroup: map[domain.GroupKey]map[string]float64{},
		Metrics: []string{"accuracy", "selection_rate"},
		Counts:  map[domain.GroupKey]int{},
		Total:   100,
	}
	for _, name := range []string{"A", "B"} {
		g := domain.NewGroupKey(name)
		r.Groups = append(r.Groups, g)
		r.ByGroup[g] = map[string]float64{"accuracy": acc, "selection_rate": rates[name]}
		r.Counts[g] = 50
	}
	return r
}

func comparison() *domain.Comparison {
	return &domain.Comparison{
		Baseline: domain.ModelEvaluation{
			Model:   domain.ModelBaseline,
			Metrics: result(map[string]float64{"A": 0.7, "B": 0.3}, 0.82),
			Fairness: domain.FairnessSummary{
				DemographicParity: &domain.GapSummary{Metric: "selection_rate", Difference: 0.4, Ratio: 0.3 / 0.7},
				Errors:            map[string]string{"equal_opportunity": "tpr missing"},
			},
		},
		Mitigated: domain.ModelEvaluation{
			Model:   domain.ModelMitigated,
			Metrics: result(map[string]float64{"A": 0.52, "B": 0.48}, 0.79),
			Fairness: domain.FairnessSummary{
				DemographicParity: &domain.GapSummary{Metric: "selection_rate", Difference: 0.04, Ratio: 0.48 / 0.52},
			},
		},
		Mitigation: domain.MitigationSummary{
			Constraint: domain.ConstraintDemographicParity,
			State:      domain.ReductionConverged,
			Verified:   true,
			Rounds:     12,
			BestRound:  11,
			Candidates: 12,
		},
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, comparison()))
	out := buf.String()

	assert.Contains(t, out, "OVERALL")
	assert.Regexp(t, `accuracy\s+0\.8200\s+0\.7900`, out)
	assert.Contains(t, out, "BY GROUP: selection_rate")
	assert.Regexp(t, `A\s+50\s+0\.7000\s+0\.5200`, out)
	assert.Regexp(t, `demographic_parity_difference\s+0\.4000\s+0\.0400`, out)
	assert.Regexp(t, `equal_opportunity_difference\s+-\s+-`, out, "absent gaps are shown as missing")
	assert.Regexp(t, `verified\s+true`, out)
	assert.NotContains(t, out, "warning")

	assert.Error(t, WriteTable(&buf, &domain.Comparison{}))
	assert.Error(t, WriteTable(&buf, nil))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	c := comparison()
	require.NoError(t, WriteJSON(&buf, c))

	var back domain.Comparison
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, c.Baseline.Metrics, back.Baseline.Metrics)
	assert.Equal(t, c.Mitigation, back.Mitigation)
	assert.True(t, strings.Contains(buf.String(), "\n  "), "output is indented")
}

func TestGroupBarChart(t *testing.T) {
	assert.Equal(t, vg.Points(18), barWidth)

	p, err := GroupBarChart(comparison(), "selection_rate")
	require.NoError(t, err)
	assert.Equal(t, "selection_rate by group", p.Title.Text)

	_, err = GroupBarChart(&domain.Comparison{}, "selection_rate")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestWriteGroupBarChart(t *testing.T) {
	t.Run("png", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteGroupBarChart(&buf, "png", comparison(), "selection_rate"))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
	})

	t.Run("svg", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteGroupBarChart(&buf, "svg", comparison(), "accuracy"))
		assert.Contains(t, buf.String(), "<svg")
	})

	t.Run("unknown metric", func(t *testing.T) {
		var buf bytes.Buffer
		err := WriteGroupBarChart(&buf, "png", comparison(), "auc")
		assert.ErrorIs(t, err, domain.ErrUnknownMetric)
	})

	t.Run("unknown format", func(t *testing.T) {
		var buf bytes.Buffer
		assert.Error(t, WriteGroupBarChart(&buf, "bmp", comparison(), "accuracy"))
	})

	t.Run("save", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rates.png")
		require.NoError(t, SaveGroupBarChart(path, comparison(), "selection_rate"))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())

		assert.Error(t, SaveGroupBarChart(filepath.Join(t.TempDir(), "rates"), comparison(), "selection_rate"))
	})
}
