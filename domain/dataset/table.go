package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Format is the declared tabular format of an uploaded file
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Table is an in-memory, row-aligned table of raw cell values.
// Column names are unique; every row has exactly len(Columns) cells.
type Table struct {
	Name    string
	Format  Format
	Columns []string
	Rows    [][]string
}

// NewTable builds a table from a header row and data rows. Header and cell
// text is kept verbatim. Blank and duplicate header names are renamed
// ("Unnamed: 3", "Fat%.1"), rows wider than the header extend it with unnamed
// columns, short rows are padded with empty cells and zero-length records are
// skipped. Rows whose cells are all empty are kept; they are missing values.
func NewTable(name string, format Format, header []string, rows [][]string) *Table {
	width := len(header)
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	columns := make([]string, width)
	copy(columns, header)
	columns = uniqueColumnNames(columns)

	data := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		cells := make([]string, width)
		copy(cells, row)
		data = append(data, cells)
	}

	return &Table{
		Name:    name,
		Format:  format,
		Columns: columns,
		Rows:    data,
	}
}

func uniqueColumnNames(columns []string) []string {
	seen := make(map[string]int, len(columns))
	for i, name := range columns {
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		candidate := name
		for {
			count, exists := seen[candidate]
			if !exists {
				break
			}
			seen[candidate] = count + 1
			candidate = fmt.Sprintf("%s.%d", name, count+1)
		}
		seen[candidate] = 0
		columns[i] = candidate
	}
	return columns
}

// NumRows returns the number of data rows
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// NumColumns returns the number of columns
func (t *Table) NumColumns() int {
	return len(t.Columns)
}

// ColumnIndex returns the position of a column, or -1
func (t *Table) ColumnIndex(name string) int {
	for i, column := range t.Columns {
		if column == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table has the named column
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Column returns the raw cells of a column
func (t *Table) Column(name string) ([]string, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	cells := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		cells[i] = row[idx]
	}
	return cells, true
}

// Head returns up to n leading rows
func (t *Table) Head(n int) [][]string {
	if n < 0 || n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Rows[:n]
}

// NumericColumn returns the non-missing values of a column when every
// non-missing cell is a finite number. ok is false otherwise or when the
// column has no values.
func (t *Table) NumericColumn(name string) (values []float64, ok bool) {
	cells, found := t.Column(name)
	if !found {
		return nil, false
	}
	values = make([]float64, 0, len(cells))
	for _, cell := range cells {
		if IsMissing(cell) {
			continue
		}
		v, isNumber := ParseNumber(cell)
		if !isNumber {
			return nil, false
		}
		values = append(values, v)
	}
	return values, len(values) > 0
}

var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
	"none": true,
	"#n/a": true,
}

// IsMissing reports whether a cell holds a missing-value marker
func IsMissing(cell string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(cell))]
}

// ParseNumber parses a cell as a finite float
func ParseNumber(cell string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
