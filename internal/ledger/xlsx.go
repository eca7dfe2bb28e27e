package ledger

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXBackend stores the table as the first sheet of an XLSX workbook.
type XLSXBackend struct {
	path  string
	sheet string
}

// NewXLSXBackend creates an XLSX backend for the given path.
func NewXLSXBackend(path string) *XLSXBackend {
	return &XLSXBackend{path: path, sheet: "Sheet1"}
}

func (b *XLSXBackend) Path() string { return b.path }

// Load reads the first sheet. The first row is the header.
func (b *XLSXBackend) Load() (*Table, error) {
	f, err := xlsx.OpenFile(b.path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("xlsx: %s has no sheets", b.path)
	}

	sheet := f.Sheets[0]
	b.sheet = sheet.Name

	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("xlsx: %s has no header row", b.path)
	}

	t := &Table{Header: rowToStrings(sheet.Rows[0])}
	for _, row := range sheet.Rows[1:] {
		t.Rows = append(t.Rows, rowToStrings(row))
	}
	return t, nil
}

// Store rewrites the whole workbook with a single sheet.
func (b *XLSXBackend) Store(t *Table) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(b.sheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	writeRow(sheet, t.Header)
	for _, cells := range t.Rows {
		writeRow(sheet, cells)
	}

	if err := f.Save(b.path); err != nil {
		return eris.Wrap(err, "xlsx: save")
	}
	return nil
}

func writeRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, v := range cells {
		row.AddCell().SetString(v)
	}
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
