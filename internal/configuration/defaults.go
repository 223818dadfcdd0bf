package configuration

import (
	"github.com/ahrav/go-fairness/internal/domain"
	"github.com/ahrav/go-fairness/internal/store"
)

// Temporal constants.
const (
	DefaultTemporalHostPort = "localhost:7233"
	DefaultNamespace        = "default"
	DefaultTaskQueue        = "fairness-audit"
)

// Observability constants.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// DefaultConfig returns a configuration that audits the synthetic dataset
// in one process with an in-memory store.
func DefaultConfig() *Config {
	return &Config{
		Reduction: domain.DefaultReductionConfig(),
		Baseline:  domain.DefaultOracleConfig(),
		Evaluation: EvaluationConfig{
			Metrics:        append([]string(nil), domain.DefaultMetrics...),
			PredictionMode: domain.PredictDeterministic,
		},
		Dataset: domain.DefaultDatasetSpec(),
		Store: StoreConfig{
			Backend: StoreMemory,
			Prefix:  store.DefaultRedisPrefix,
		},
		Temporal: TemporalConfig{
			HostPort:  DefaultTemporalHostPort,
			Namespace: DefaultNamespace,
			TaskQueue: DefaultTaskQueue,
		},
		Observability: ObservabilityConfig{
			LogLevel:  DefaultLogLevel,
			LogFormat: DefaultLogFormat,
		},
	}
}
