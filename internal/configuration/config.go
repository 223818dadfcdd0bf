// Package configuration holds the settings of the audit CLI and worker:
// reduction and oracle parameters, the dataset to audit, the artifact store
// backend, the Temporal connection, and logging.
package configuration

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-fairness/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds the complete configuration of an audit deployment.
type Config struct {
	// Reduction configures the exponentiated-gradient mitigation.
	Reduction domain.ReductionConfig `json:"reduction"`

	// Baseline configures the logistic oracle, shared by the baseline and
	// every reduction round.
	Baseline domain.OracleConfig `json:"baseline"`

	Evaluation EvaluationConfig `json:"evaluation"`

	// Dataset selects and splits the data.
	Dataset domain.DatasetSpec `json:"dataset"`

	Store         StoreConfig         `json:"store"`
	Temporal      TemporalConfig      `json:"temporal"`
	Observability ObservabilityConfig `json:"observability"`
}

// EvaluationConfig controls how both models are scored.
type EvaluationConfig struct {
	Metrics        []string              `json:"metrics" validate:"required,min=1,dive,required"`
	PredictionMode domain.PredictionMode `json:"prediction_mode" validate:"required,oneof=deterministic stochastic"`
}

// StoreConfig selects the artifact store backend. The memory backend only
// works when every stage runs in one process.
type StoreConfig struct {
	Backend       string        `json:"backend" validate:"required,oneof=memory redis"`
	RedisAddr     string        `json:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string        `json:"-"` // Sensitive; from FAIRNESS_REDIS_PASSWORD.
	RedisDB       int           `json:"redis_db" validate:"min=0"`
	Prefix        string        `json:"prefix"`
	TTL           time.Duration `json:"ttl" validate:"min=0"`
}

// TemporalConfig addresses the Temporal frontend used by the worker.
type TemporalConfig struct {
	HostPort  string `json:"host_port" validate:"required"`
	Namespace string `json:"namespace" validate:"required"`
	TaskQueue string `json:"task_queue" validate:"required"`
}

// ObservabilityConfig controls logging.
type ObservabilityConfig struct {
	LogLevel  string `json:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `json:"log_format" validate:"oneof=text json"`
}

// Validate checks every section, including the nested domain configurations.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}
	if err := c.Reduction.Validate(); err != nil {
		return err
	}
	if err := c.Baseline.Validate(); err != nil {
		return err
	}
	if err := validate.Struct(c.Dataset); err != nil {
		return fmt.Errorf("%w: dataset: %w", domain.ErrInvalidConfig, err)
	}
	return nil
}

// Request builds a validated audit request from the configuration.
//
// WARNING: Do not call this inside workflows; it generates an ID and reads
// the clock.
func (c *Config) Request() (*domain.AuditRequest, error) {
	req, err := domain.NewAuditRequest(c.Dataset, c.Baseline, c.Reduction, c.Evaluation.Metrics)
	if err != nil {
		return nil, err
	}
	req.PredictionMode = c.Evaluation.PredictionMode
	return req, req.Validate()
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (o ObservabilityConfig) SlogLevel() slog.Level {
	switch o.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
