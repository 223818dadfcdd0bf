package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/ahrav/go-fairness/internal/domain"
)

const (
	chartWidth  = 6 * vg.Inch
	chartHeight = 4 * vg.Inch
	barWidth    = vg.Length(18)
)

// GroupBarChart builds a grouped bar chart of one metric by group, one bar
// series per model.
func GroupBarChart(c *domain.Comparison, metric string) (*plot.Plot, error) {
	if c == nil || c.Baseline.Metrics == nil || c.Mitigated.Metrics == nil {
		return nil, fmt.Errorf("%w: comparison has no metrics", domain.ErrInvalidRequest)
	}
	groups := c.Baseline.Metrics.Groups
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: no groups to plot", domain.ErrInvalidRequest)
	}

	p := plot.New()
	p.Title.Text = metric + " by group"
	p.Y.Label.Text = metric
	p.Legend.Top = true

	series := []domain.ModelEvaluation{c.Baseline, c.Mitigated}
	for i, eval := range series {
		vals := make(plotter.Values, len(groups))
		for j, g := range groups {
			v, ok := eval.Metrics.Value(g, metric)
			if !ok {
				return nil, fmt.Errorf("%w: %q for group %s of %s", domain.ErrUnknownMetric, metric, g, eval.Model)
			}
			vals[j] = v
		}
		bars, err := plotter.NewBarChart(vals, barWidth)
		if err != nil {
			return nil, fmt.Errorf("bar chart: %w", err)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = vg.Length(float64(i)-float64(len(series)-1)/2) * barWidth
		p.Add(bars)
		p.Legend.Add(eval.Model, bars)
	}

	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.String()
	}
	p.NominalX(names...)
	return p, nil
}

// WriteGroupBarChart renders GroupBarChart in format ("png", "svg", "pdf").
func WriteGroupBarChart(w io.Writer, format string, c *domain.Comparison, metric string) error {
	p, err := GroupBarChart(c, metric)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(chartWidth, chartHeight, format)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// SaveGroupBarChart writes the chart to path; the extension picks the format.
func SaveGroupBarChart(path string, c *domain.Comparison, metric string) error {
	p, err := GroupBarChart(c, metric)
	if err != nil {
		return err
	}
	if strings.TrimPrefix(filepath.Ext(path), ".") == "" {
		return fmt.Errorf("chart path %q has no extension", path)
	}
	return p.Save(chartWidth, chartHeight, path)
}
