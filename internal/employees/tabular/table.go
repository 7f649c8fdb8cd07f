// Package tabular turns uploaded CSV and XLSX files into a row-oriented table
// addressed by column name.
package tabular

import (
	"fmt"
	"strings"

	e "github.com/gartstein/roster/internal/employees/errors"
)

// Format identifies the encoding of an uploaded file.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// FormatFromFilename picks the format from the file extension.
func FormatFromFilename(name string) (Format, error) {
	switch {
	case strings.HasSuffix(name, ".xlsx"):
		return XLSX, nil
	case strings.HasSuffix(name, ".csv"):
		return CSV, nil
	default:
		return "", fmt.Errorf("%w: %q", e.ErrUnsupportedFormat, name)
	}
}

// Parse decodes data in the given format into a Table.
// All failures wrap errors.ErrParse.
func Parse(format Format, data []byte) (*Table, error) {
	var (
		records [][]string
		lines   []int
		err     error
	)
	switch format {
	case CSV:
		records, lines, err = readCSV(data)
	case XLSX:
		records, lines, err = readXLSX(data)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", e.ErrParse, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrParse, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no columns to parse from file", e.ErrParse)
	}
	return newTable(records[0], records[1:], lines[1:])
}

// Table is an in-memory sheet with a header row.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
	lines   []int
}

func newTable(header []string, rows [][]string, lines []int) (*Table, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}
	for i, row := range rows {
		if len(row) > len(header) {
			return nil, fmt.Errorf("%w: line %d has %d fields, header has %d",
				e.ErrParse, lines[i], len(row), len(header))
		}
	}
	return &Table{
		columns: header,
		index:   index,
		rows:    rows,
		lines:   lines,
	}, nil
}

// Columns returns the header in file order.
func (t *Table) Columns() []string {
	return t.columns
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns the i-th data row.
func (t *Table) Row(i int) Row {
	return Row{Line: t.lines[i], table: t, cells: t.rows[i]}
}

// Missing reports which of cols are absent from the header.
func (t *Table) Missing(cols ...string) []string {
	var missing []string
	for _, c := range cols {
		if _, ok := t.index[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// Row is a single data record of a Table.
type Row struct {
	// Line is the 1-based position of the record in the source file.
	Line  int
	table *Table
	cells []string
}

// Get returns the raw cell under column, or "" when the cell is absent.
func (r Row) Get(column string) string {
	pos, ok := r.table.index[column]
	if !ok || pos >= len(r.cells) {
		return ""
	}
	return r.cells[pos]
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
