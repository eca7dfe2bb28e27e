// Package store persists the batch run journal. The journal is an audit
// trail beside the contact table: the table itself stays the single source
// of truth for row state.
package store

import (
	"context"

	"github.com/sells-group/storefront-cli/internal/model"
)

// RunFilter specifies criteria for listing journaled runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
}

// Store defines the journal persistence interface.
type Store interface {
	// Runs
	StartRun(ctx context.Context, tablePath string, queued int) (string, error)
	RecordRow(ctx context.Context, runID string, outcome model.RowOutcome) error
	CompleteRun(ctx context.Context, runID string, stats model.BatchStats) error
	GetRun(ctx context.Context, runID string) (*model.BatchRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.BatchRun, error)
	ListRows(ctx context.Context, runID string) ([]model.RowOutcome, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
