package ledger

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// CSVBackend stores the table as a UTF-8 CSV file.
type CSVBackend struct {
	path string
}

// NewCSVBackend creates a CSV backend for the given path.
func NewCSVBackend(path string) *CSVBackend {
	return &CSVBackend{path: path}
}

func (b *CSVBackend) Path() string { return b.path }

// Load reads the whole file. The first row is the header.
func (b *CSVBackend) Load() (*Table, error) {
	f, err := os.Open(b.path)
	if err != nil {
		return nil, eris.Wrap(err, "csv: open")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // allow variable fields

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "csv: read")
	}
	if len(records) == 0 {
		return nil, eris.Errorf("csv: %s has no header row", b.path)
	}

	return &Table{Header: records[0], Rows: records[1:]}, nil
}

// Store rewrites the whole file. The table is written to a temp file in the
// same directory and renamed over the target so a crash mid-write never
// leaves a truncated table behind.
func (b *CSVBackend) Store(t *Table) error {
	dir := filepath.Dir(b.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".tmp*")
	if err != nil {
		return eris.Wrap(err, "csv: create temp")
	}
	tmpPath := tmp.Name()

	w := csv.NewWriter(tmp)
	writeErr := w.Write(t.Header)
	if writeErr == nil {
		writeErr = w.WriteAll(t.Rows)
	}
	w.Flush()
	if writeErr == nil {
		writeErr = w.Error()
	}
	if syncErr := tmp.Sync(); writeErr == nil {
		writeErr = syncErr
	}
	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		_ = os.Remove(tmpPath)
		return eris.Wrap(writeErr, "csv: write temp")
	}

	if err := os.Rename(tmpPath, b.path); err != nil {
		_ = os.Remove(tmpPath)
		return eris.Wrap(err, "csv: rename temp")
	}
	return nil
}
