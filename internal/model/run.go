package model

import "time"

// RunStatus tracks the lifecycle of a journaled batch run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
)

// BatchRun is one journaled invocation of the collect command.
type BatchRun struct {
	ID          string     `json:"id"`
	TablePath   string     `json:"table_path"`
	Status      RunStatus  `json:"status"`
	Stats       BatchStats `json:"stats"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RowStatus classifies the terminal outcome of one processed row.
type RowStatus string

const (
	// RowStatusSuccess means contact fields were extracted and persisted.
	RowStatusSuccess RowStatus = "success"

	// RowStatusClosed means the storefront was stamped permanently closed.
	// This is a successful, terminal outcome, not a failure.
	RowStatusClosed RowStatus = "closed"

	// RowStatusFailed means the row was marked with an error and stays
	// eligible for a future run.
	RowStatusFailed RowStatus = "failed"

	// RowStatusAlreadyDone means the process-time re-check found the row
	// closed or fully updated, so no navigation happened.
	RowStatusAlreadyDone RowStatus = "already_done"
)

// RowOutcome is the journal entry for one processed row.
type RowOutcome struct {
	CompanyName string    `json:"company_name"`
	StoreURL    string    `json:"store_url"`
	Status      RowStatus `json:"status"`
	Detail      string    `json:"detail,omitempty"`
	Position    int       `json:"position"` // 1-based row in the backing file, header included
}

// BatchStats aggregates counters across a batch run.
type BatchStats struct {
	Queued    int `json:"queued"`
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}
