// Package main runs a fairness audit in-process: prepare data, train and
// evaluate a baseline, train and evaluate a mitigated model, then print the
// comparison.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/ahrav/go-fairness/internal/audit"
	"github.com/ahrav/go-fairness/internal/configuration"
	"github.com/ahrav/go-fairness/internal/domain"
	"github.com/ahrav/go-fairness/internal/metrics"
	"github.com/ahrav/go-fairness/internal/pipeline"
	"github.com/ahrav/go-fairness/internal/report"
	"github.com/ahrav/go-fairness/pkg/activity"
	"github.com/ahrav/go-fairness/pkg/events"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath    string
	csvPath       string
	label         string
	positive      string
	sensitive     string
	constraint    string
	epsilon       float64
	maxIter       int
	seed          int64
	mode          string
	syntheticSize int
	output        string
	chartPath     string
	chartMetric   string
	showEvents    bool
}

func parseFlags(args []string, stderr io.Writer) (*options, map[string]bool, error) {
	fs := flag.NewFlagSet("fairaudit", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.configPath, "config", "", "Path to a JSON config file")
	fs.StringVar(&o.csvPath, "csv", "", "Path to a headed CSV dataset (default: synthetic data)")
	fs.StringVar(&o.label, "label", "", "Label column of the CSV")
	fs.StringVar(&o.positive, "positive", "", "Label value mapped to 1 (default: numeric 0/1 labels)")
	fs.StringVar(&o.sensitive, "sensitive", "", "Comma-separated sensitive columns of the CSV")
	fs.StringVar(&o.constraint, "constraint", string(domain.ConstraintDemographicParity),
		"Fairness constraint: demographic_parity or true_positive_rate_parity")
	fs.Float64Var(&o.epsilon, "eps", domain.DefaultEpsilon, "Allowed constraint violation")
	fs.IntVar(&o.maxIter, "max-iter", domain.DefaultMaxIter, "Maximum reduction rounds")
	fs.Int64Var(&o.seed, "seed", domain.DefaultSeed, "Seed for splitting, oracles and sampling")
	fs.StringVar(&o.mode, "mode", string(domain.PredictDeterministic), "Mitigated prediction mode: deterministic or stochastic")
	fs.IntVar(&o.syntheticSize, "synthetic-size", 0, "Rows of synthetic data (0 keeps the configured size)")
	fs.StringVar(&o.output, "output", "table", "Output format: table or json")
	fs.StringVar(&o.chartPath, "chart", "", "Write a by-group bar chart to this path (.png, .svg, .pdf)")
	fs.StringVar(&o.chartMetric, "chart-metric", metrics.NameSelectionRate, "Metric plotted by -chart")
	fs.BoolVar(&o.showEvents, "events", false, "Log emitted audit events")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return o, set, nil
}

// apply overrides cfg with the flags given on the command line; unset flags
// keep the configured values.
func (o *options) apply(cfg *configuration.Config, set map[string]bool) {
	if o.csvPath != "" {
		cfg.Dataset.Source = domain.SourceCSV
		cfg.Dataset.Path = o.csvPath
	}
	if set["label"] {
		cfg.Dataset.LabelColumn = o.label
	}
	if set["positive"] {
		cfg.Dataset.PositiveLabel = o.positive
	}
	if set["sensitive"] {
		cfg.Dataset.SensitiveColumns = strings.Split(o.sensitive, ",")
	}
	if set["synthetic-size"] {
		cfg.Dataset.SyntheticSize = o.syntheticSize
	}
	if set["seed"] {
		cfg.Dataset.Seed = o.seed
		cfg.Reduction.Seed = o.seed
	}
	if set["constraint"] {
		cfg.Reduction.Constraint = domain.ConstraintKind(o.constraint)
	}
	if set["eps"] {
		cfg.Reduction.Epsilon = o.epsilon
	}
	if set["max-iter"] {
		cfg.Reduction.MaxIter = o.maxIter
	}
	if set["mode"] {
		cfg.Evaluation.PredictionMode = domain.PredictionMode(o.mode)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, set, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if o.output != "table" && o.output != "json" {
		return fmt.Errorf("unknown output format %q", o.output)
	}

	cfg, err := configuration.Load(o.configPath)
	if err != nil {
		return err
	}
	o.apply(cfg, set)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := configuration.NewLogger(stderr, cfg.Observability)
	blobs, closeStore, err := configuration.NewBlobStore(cfg.Store)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	var sink events.EventSink = events.NewNoOpEventSink()
	if o.showEvents {
		sink = events.NewLogEventSink(logger)
	}
	acts := audit.NewActivities(activity.NewBaseActivities(sink), blobs, logger)

	req, err := cfg.Request()
	if err != nil {
		return err
	}
	rep, err := pipeline.RunAudit(ctx, acts, req, logger)
	if err != nil {
		return err
	}

	switch o.output {
	case "json":
		err = report.WriteJSON(stdout, rep)
	default:
		err = report.WriteTable(stdout, &rep.Comparison)
	}
	if err != nil {
		return err
	}

	if o.chartPath != "" {
		if err := report.SaveGroupBarChart(o.chartPath, &rep.Comparison, o.chartMetric); err != nil {
			return err
		}
		logger.Info("chart written", "path", o.chartPath, "metric", o.chartMetric)
	}
	if !rep.Mitigation.Verified {
		logger.Warn("mitigated model is not verified fair", "state", rep.Mitigation.State, "warning", rep.Mitigation.Warning)
	}
	return nil
}
