// Package ledger maintains the row-oriented contact table and its durable
// backing file. Every mutation is flushed immediately; there is no deferred
// write path.
package ledger

import (
	"path/filepath"
	"strings"
)

// Table is the in-memory image of the backing file. The header row and any
// columns beyond the required schema are preserved verbatim so that an
// untouched row round-trips byte-for-byte.
type Table struct {
	Header []string
	Rows   [][]string
}

// Backend loads and rewrites the backing table in full.
type Backend interface {
	Load() (*Table, error)
	Store(*Table) error
	Path() string
}

// OpenBackend picks a backend by file extension: .xlsx gets the spreadsheet
// backend, everything else is treated as CSV.
func OpenBackend(path string) Backend {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return NewXLSXBackend(path)
	}
	return NewCSVBackend(path)
}
