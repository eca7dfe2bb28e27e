package ledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/storefront-cli/internal/model"
)

func writeXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sellers.xlsx")
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, cells := range rows {
		row := sheet.AddRow()
		for _, v := range cells {
			row.AddCell().SetString(v)
		}
	}
	require.NoError(t, f.Save(path))
	return path
}

func TestXLSXBackend_RoundTrip(t *testing.T) {
	path := writeXLSX(t, [][]string{
		header,
		{"Alpha", "https://smartstore.naver.com/alpha", "", ""},
	})

	backend := NewXLSXBackend(path)
	table, err := backend.Load()
	require.NoError(t, err)
	assert.Equal(t, header, table.Header)
	require.Len(t, table.Rows, 1)

	table.Rows[0][2] = "02-1234-5678"
	require.NoError(t, backend.Store(table))

	reread, err := NewXLSXBackend(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "02-1234-5678", reread.Rows[0][2])
}

func TestLedger_XLSXMutationDurable(t *testing.T) {
	path := writeXLSX(t, [][]string{
		header,
		{"Alpha", "https://smartstore.naver.com/alpha", "", ""},
	})

	l, err := Open(NewXLSXBackend(path))
	require.NoError(t, err)
	require.True(t, l.RecordExtraction("Alpha", model.ExtractionResult{Email: "a@b.c"}))

	reread, err := NewXLSXBackend(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", reread.Rows[0][3])
}

func TestOpenBackend_ByExtension(t *testing.T) {
	assert.IsType(t, &XLSXBackend{}, OpenBackend("sellers.xlsx"))
	assert.IsType(t, &XLSXBackend{}, OpenBackend("sellers.XLSX"))
	assert.IsType(t, &CSVBackend{}, OpenBackend("sellers.csv"))
	assert.IsType(t, &CSVBackend{}, OpenBackend("sellers.txt"))
}
