// Package workflow implements the Temporal workflow of a fairness audit.
//
// FairnessAuditWorkflow sequences the audit activities from the audit
// package: prepare data, train baseline, evaluate baseline, train mitigated,
// evaluate mitigated. Stages exchange artifact references, never datasets or
// models, so workflow history stays small.
//
// Workflows must not contain non-deterministic operations such as random
// number generation, system time access, or external I/O. Model fitting,
// seeded sampling and storage all happen inside activities.
package workflow
