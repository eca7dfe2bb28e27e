package ledger

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/storefront-cli/internal/model"
)

func writeCSV(t *testing.T, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sellers.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll(rows))
	w.Flush()
	require.NoError(t, f.Close())
	return path
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)
	return rows
}

var header = []string{"company_name", "store_url", "updated_phone", "updated_email"}

func openTestLedger(t *testing.T, rows [][]string) (*Ledger, string) {
	t.Helper()
	path := writeCSV(t, append([][]string{header}, rows...))
	l, err := Open(NewCSVBackend(path))
	require.NoError(t, err)
	return l, path
}

func TestOpen_MissingColumn(t *testing.T) {
	path := writeCSV(t, [][]string{{"company_name", "store_url"}})
	_, err := Open(NewCSVBackend(path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "updated_phone")
}

func TestFilterWorkQueue(t *testing.T) {
	l, _ := openTestLedger(t, [][]string{
		{"Alpha", "https://smartstore.naver.com/alpha", "", ""},
		{"Bravo", "https://example.com/bravo", "", ""},
		{"Charlie", "https://smartstore.naver.com/charlie", "CLOSED_20260101", ""},
		{"Delta", "https://smartstore.naver.com/delta", "02-1111-2222", "d@x.com"},
		{"Echo", "https://smartstore.naver.com/echo", "ERROR: nav failed", "e@x.com"},
		{"Foxtrot", "https://smartstore.naver.com/foxtrot", "02-3333-4444", ""},
	})

	queue := l.FilterWorkQueue("smartstore.naver.com")

	// Bravo fails the domain filter, Charlie is closed, Delta is fully
	// updated. Echo stays eligible because its phone column carries an error
	// marker; Foxtrot stays because email is missing. Order is reversed.
	names := make([]string, len(queue))
	for i, r := range queue {
		names[i] = r.CompanyName
	}
	assert.Equal(t, []string{"Foxtrot", "Echo", "Alpha"}, names)
}

func TestFilterWorkQueue_ReverseOfFiltered(t *testing.T) {
	rows := [][]string{
		{"A", "https://smartstore.naver.com/a", "", ""},
		{"B", "https://smartstore.naver.com/b", "", ""},
		{"C", "https://smartstore.naver.com/c", "", ""},
	}
	l, _ := openTestLedger(t, rows)

	queue := l.FilterWorkQueue("smartstore.naver.com")
	require.Len(t, queue, 3)
	assert.Equal(t, "C", queue[0].CompanyName)
	assert.Equal(t, "A", queue[2].CompanyName)
}

func TestRecordExtraction_FlushesImmediately(t *testing.T) {
	l, path := openTestLedger(t, [][]string{
		{"Alpha", "https://smartstore.naver.com/alpha", "", ""},
	})

	applied := l.RecordExtraction("Alpha", model.ExtractionResult{
		Phone: "02-1234-5678",
		Email: "seller@example.com",
	})
	require.True(t, applied)

	// An independent read of the backing file must reflect the change with no
	// batching delay.
	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, "02-1234-5678", rows[1][2])
	assert.Equal(t, "seller@example.com", rows[1][3])
}

func TestRecordExtraction_PartialResult(t *testing.T) {
	l, path := openTestLedger(t, [][]string{
		{"Alpha", "https://smartstore.naver.com/alpha", "", "existing@x.com"},
	})

	applied := l.RecordExtraction("Alpha", model.ExtractionResult{Phone: "02-9999-0000"})
	require.True(t, applied)

	rows := readCSV(t, path)
	assert.Equal(t, "02-9999-0000", rows[1][2])
	assert.Equal(t, "existing@x.com", rows[1][3], "absent field must not clear the column")
}

func TestRecordExtraction_NoChange(t *testing.T) {
	l, _ := openTestLedger(t, [][]string{
		{"Alpha", "https://smartstore.naver.com/alpha", "02-1234-5678", ""},
	})

	applied := l.RecordExtraction("Alpha", model.ExtractionResult{Phone: "02-1234-5678"})
	assert.False(t, applied)
}

func TestMutation_KeyMismatch(t *testing.T) {
	l, path := openTestLedger(t, [][]string{
		{"Dup", "https://smartstore.naver.com/a", "", ""},
		{"Dup", "https://smartstore.naver.com/b", "", ""},
	})

	before := readCSV(t, path)

	assert.False(t, l.RecordExtraction("Missing", model.ExtractionResult{Phone: "1"}))
	assert.False(t, l.MarkClosed("Missing"))
	assert.False(t, l.MarkError("Missing", "x"))

	// Ambiguous key: zero or multiple matches are a no-op.
	assert.False(t, l.RecordExtraction("Dup", model.ExtractionResult{Phone: "1"}))

	assert.Equal(t, before, readCSV(t, path))
}

func TestMarkClosed_Idempotent(t *testing.T) {
	l, path := openTestLedger(t, [][]string{
		{"Alpha", "https://smartstore.naver.com/alpha", "", ""},
	})
	l.now = func() time.Time { return time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC) }

	require.True(t, l.MarkClosed("Alpha"))
	first := readCSV(t, path)
	assert.Equal(t, "CLOSED_20260829", first[1][2])

	// Second call writes the same marker: no change persisted, reported
	// false, but the flush still happens safely.
	require.False(t, l.MarkClosed("Alpha"))
	assert.Equal(t, first, readCSV(t, path))
}

func TestMarkError(t *testing.T) {
	l, path := openTestLedger(t, [][]string{
		{"Alpha", "https://smartstore.naver.com/alpha", "", ""},
	})

	require.True(t, l.MarkError("Alpha", "disclosure control missing"))
	rows := readCSV(t, path)
	assert.Equal(t, "ERROR: disclosure control missing", rows[1][2])

	// Stamping the identical marker again persists nothing.
	assert.False(t, l.MarkError("Alpha", "disclosure control missing"))
	assert.True(t, l.MarkError("Alpha", "page unreachable"))
}

func TestLedger_PreservesExtraColumns(t *testing.T) {
	path := writeCSV(t, [][]string{
		{"company_name", "store_url", "updated_phone", "updated_email", "memo"},
		{"Alpha", "https://smartstore.naver.com/alpha", "", "", "keep me"},
	})
	l, err := Open(NewCSVBackend(path))
	require.NoError(t, err)

	require.True(t, l.RecordExtraction("Alpha", model.ExtractionResult{Phone: "02-1"}))

	rows := readCSV(t, path)
	assert.Equal(t, "keep me", rows[1][4])
}

func TestRowPosition(t *testing.T) {
	l, _ := openTestLedger(t, [][]string{
		{"Alpha", "u", "", ""},
		{"Bravo", "u", "", ""},
	})

	// Header is row 1.
	assert.Equal(t, 2, l.RowPosition("Alpha"))
	assert.Equal(t, 3, l.RowPosition("Bravo"))
	assert.Equal(t, 0, l.RowPosition("Missing"))
}

func TestLedger_ShortRowGrows(t *testing.T) {
	path := writeCSV(t, [][]string{
		header,
		{"Alpha", "https://smartstore.naver.com/alpha"},
	})
	l, err := Open(NewCSVBackend(path))
	require.NoError(t, err)

	require.True(t, l.RecordExtraction("Alpha", model.ExtractionResult{Email: "a@b.c"}))
	rows := readCSV(t, path)
	require.Len(t, rows[1], 4)
	assert.Equal(t, "a@b.c", rows[1][3])
}
