// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/delphi/schema"
)

// ModuleStore holds the ordered module list of a project.
type ModuleStore interface {
	// ListModules returns the modules in display order.
	ListModules(ctx context.Context) ([]schema.Module, error)

	// SaveModules replaces the whole module list atomically.
	SaveModules(ctx context.Context, modules []schema.Module) error
}

// EstimationStore holds one estimation record per estimator, keyed by the
// case-insensitive estimator name.
type EstimationStore interface {
	// ListEstimations returns every record in first-submission order.
	ListEstimations(ctx context.Context) ([]schema.EstimationRecord, error)

	// GetEstimation returns the record for name and whether it exists.
	GetEstimation(ctx context.Context, name string) (schema.EstimationRecord, bool, error)

	// PutEstimation inserts or replaces the record for its estimator.
	PutEstimation(ctx context.Context, rec schema.EstimationRecord) error

	// DeleteEstimations removes every record of the project.
	DeleteEstimations(ctx context.Context) error
}

// ProjectStore is the persistence the engine needs for one project.
// This allows the engine to be tested without a database.
type ProjectStore interface {
	ModuleStore
	EstimationStore

	// GetStatus returns status information about the store
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection
	Close() error
}

// HistoryStore keeps a record of every final report that was computed.
type HistoryStore interface {
	// RecordReport stores one report run
	RecordReport(ctx context.Context, rec schema.ReportRunRecord) error

	// ListReports returns every stored run, newest first
	ListReports(ctx context.Context) ([]schema.ReportRunRecord, error)

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// Close closes the underlying connection
	Close() error
}

// StoreManager defines the interface for managing the stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetProjectStore() ProjectStore
	GetHistoryStore() HistoryStore
}
