package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a header-mapped sheet of string cells.
type Table struct {
	columns map[string]int
	Rows    [][]string
}

// ReadFile loads the first sheet of an .xlsx file or a .csv file.
func ReadFile(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readXLSX(path)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		return ReadCSV(f)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

// ReadCSV reads a CSV stream whose first record is the header.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	t := newTable(header)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		t.Rows = append(t.Rows, record)
	}
	return t, nil
}

func readXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx file %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheets[0])
	}

	t := newTable(rows[0])
	t.Rows = rows[1:]
	return t, nil
}

func newTable(header []string) *Table {
	t := &Table{columns: make(map[string]int, len(header))}
	for i, col := range header {
		t.columns[normalize(col)] = i
	}
	return t
}

// normalize folds "Daily Sales", "daily_sales" and "dailySales" to one key.
func normalize(col string) string {
	col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
	var b strings.Builder
	for _, r := range strings.ToLower(col) {
		if r == ' ' || r == '_' || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Has reports whether any of the aliases is a column.
func (t *Table) Has(aliases ...string) bool {
	_, ok := t.index(aliases)
	return ok
}

// Get returns the trimmed cell for the first alias present in the header.
func (t *Table) Get(row []string, aliases ...string) string {
	i, ok := t.index(aliases)
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *Table) index(aliases []string) (int, bool) {
	for _, a := range aliases {
		if i, ok := t.columns[normalize(a)]; ok {
			return i, true
		}
	}
	return 0, false
}
