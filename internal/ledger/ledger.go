package ledger

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/storefront-cli/internal/model"
)

// Required column names (header row).
const (
	ColCompanyName  = "company_name"
	ColStoreURL     = "store_url"
	ColUpdatedPhone = "updated_phone"
	ColUpdatedEmail = "updated_email"
)

// Ledger is an in-memory indexed table over the backing file. Mutations are
// applied in place and flushed to the backend immediately; a flush failure is
// logged, and the in-memory table stays authoritative for the rest of the
// session.
type Ledger struct {
	backend Backend
	table   *Table
	cols    map[string]int
	now     func() time.Time
}

// Open loads the backing table once and resolves the required columns.
func Open(backend Backend) (*Ledger, error) {
	table, err := backend.Load()
	if err != nil {
		return nil, err
	}

	cols := make(map[string]int, len(table.Header))
	for i, name := range table.Header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{ColCompanyName, ColStoreURL, ColUpdatedPhone, ColUpdatedEmail} {
		if _, ok := cols[required]; !ok {
			return nil, eris.Errorf("ledger: %s is missing column %q", backend.Path(), required)
		}
	}

	return &Ledger{
		backend: backend,
		table:   table,
		cols:    cols,
		now:     time.Now,
	}, nil
}

// Len returns the number of data rows.
func (l *Ledger) Len() int { return len(l.table.Rows) }

// Path returns the backing file path.
func (l *Ledger) Path() string { return l.backend.Path() }

// Get returns the record for the given company name, if exactly one row
// matches.
func (l *Ledger) Get(key string) (model.Record, bool) {
	idx, ok := l.lookup(key)
	if !ok {
		return model.Record{}, false
	}
	return l.record(idx), true
}

// RowPosition returns the 1-based position of the key's row in the backing
// file, counting the header as row 1. Returns 0 when the key does not
// resolve to exactly one row.
func (l *Ledger) RowPosition(key string) int {
	idx, ok := l.lookup(key)
	if !ok {
		return 0
	}
	return idx + 2
}

// FilterWorkQueue selects the rows still needing work: URL contains the
// marketplace domain marker, not marked closed, and not already fully
// updated. The result is reversed relative to source order so the
// most-recently-appended rows are processed first. Membership is a pure
// function of ledger state at call time.
func (l *Ledger) FilterWorkQueue(domainMarker string) []model.Record {
	var queue []model.Record
	for i := range l.table.Rows {
		rec := l.record(i)
		if !strings.Contains(rec.StoreURL, domainMarker) {
			continue
		}
		if rec.Closed() {
			continue
		}
		if rec.FullyUpdated() {
			continue
		}
		queue = append(queue, rec)
	}

	for i, j := 0, len(queue)-1; i < j; i, j = i+1, j-1 {
		queue[i], queue[j] = queue[j], queue[i]
	}
	return queue
}

// RecordExtraction sets the columns for each field present in result and
// flushes if anything changed. Returns whether a change was applied.
func (l *Ledger) RecordExtraction(key string, result model.ExtractionResult) bool {
	idx, ok := l.lookup(key)
	if !ok {
		zap.L().Warn("ledger: no unique row for key", zap.String("company", key))
		return false
	}

	changed := false
	if result.Phone != "" {
		changed = l.setCell(idx, ColUpdatedPhone, result.Phone) || changed
	}
	if result.Email != "" {
		changed = l.setCell(idx, ColUpdatedEmail, result.Email) || changed
	}

	if changed {
		l.flushLogged()
	}
	return changed
}

// MarkClosed stamps the phone column with the closed marker for today and
// flushes. Returns whether the cell changed: re-marking an already-closed
// row the same day is reported false, though it still flushes safely.
func (l *Ledger) MarkClosed(key string) bool {
	idx, ok := l.lookup(key)
	if !ok {
		zap.L().Warn("ledger: no unique row for key", zap.String("company", key))
		return false
	}

	changed := l.setCell(idx, ColUpdatedPhone, model.ClosedMarker(l.now()))
	l.flushLogged()
	return changed
}

// MarkError stamps the phone column with an error marker and flushes.
// Returns whether the cell changed.
func (l *Ledger) MarkError(key, msg string) bool {
	idx, ok := l.lookup(key)
	if !ok {
		zap.L().Warn("ledger: no unique row for key", zap.String("company", key))
		return false
	}

	changed := l.setCell(idx, ColUpdatedPhone, model.ErrorMarker(msg))
	l.flushLogged()
	return changed
}

// Flush serializes the entire table to the backing store, overwriting it.
func (l *Ledger) Flush() error {
	return l.backend.Store(l.table)
}

func (l *Ledger) flushLogged() {
	if err := l.Flush(); err != nil {
		zap.L().Error("ledger: flush failed, in-memory table stays authoritative",
			zap.String("path", l.backend.Path()),
			zap.Error(err),
		)
	}
}

// lookup resolves a key to its row index. Zero or multiple matches disqualify
// the mutation.
func (l *Ledger) lookup(key string) (int, bool) {
	found := -1
	for i := range l.table.Rows {
		if l.cell(i, ColCompanyName) == key {
			if found >= 0 {
				return 0, false
			}
			found = i
		}
	}
	if found < 0 {
		return 0, false
	}
	return found, true
}

func (l *Ledger) record(idx int) model.Record {
	return model.Record{
		CompanyName:  l.cell(idx, ColCompanyName),
		StoreURL:     l.cell(idx, ColStoreURL),
		UpdatedPhone: l.cell(idx, ColUpdatedPhone),
		UpdatedEmail: l.cell(idx, ColUpdatedEmail),
	}
}

func (l *Ledger) cell(idx int, col string) string {
	row := l.table.Rows[idx]
	c := l.cols[col]
	if c >= len(row) {
		return ""
	}
	return row[c]
}

// setCell writes a value, growing short rows to reach the column. Returns
// whether the stored value changed.
func (l *Ledger) setCell(idx int, col, value string) bool {
	c := l.cols[col]
	row := l.table.Rows[idx]
	for len(row) <= c {
		row = append(row, "")
	}
	if row[c] == value {
		l.table.Rows[idx] = row
		return false
	}
	row[c] = value
	l.table.Rows[idx] = row
	return true
}
