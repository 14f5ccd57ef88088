package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gostatlab/domain/core"
	"gostatlab/domain/sampling"
)

// ColumnKind is the statistical nature inferred for a column.
type ColumnKind string

const (
	KindInteger ColumnKind = "integer"
	KindFloat   ColumnKind = "float"
	KindText    ColumnKind = "text"
)

// IsNumeric reports whether the kind holds quantitative values.
func (k ColumnKind) IsNumeric() bool {
	return k == KindInteger || k == KindFloat
}

// Table is a rectangular set of string cells with named columns. Rows are
// padded or truncated to the header width on construction.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// NewTable trims headers and normalizes row widths.
func NewTable(headers []string, rows [][]string) (*Table, error) {
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: table has no columns", core.ErrInsufficientData)
	}
	t := &Table{Headers: make([]string, len(headers)), Rows: make([][]string, 0, len(rows))}
	seen := make(map[string]bool, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if seen[h] {
			return nil, fmt.Errorf("%w: column %q", core.ErrDuplicateCategory, h)
		}
		seen[h] = true
		t.Headers[i] = h
	}
	for _, row := range rows {
		cells := make([]string, len(headers))
		for j := range cells {
			if j < len(row) {
				cells[j] = strings.TrimSpace(row[j])
			}
		}
		t.Rows = append(t.Rows, cells)
	}
	return t, nil
}

// Dimensions returns the number of rows and columns.
func (t *Table) Dimensions() (rows, cols int) {
	return len(t.Rows), len(t.Headers)
}

// ColumnIndex returns the index of the named column.
func (t *Table) ColumnIndex(name string) (int, error) {
	for i, h := range t.Headers {
		if h == name {
			return i, nil
		}
	}
	return -1, core.NewNotFoundError(core.ErrColumnNotFound, name)
}

// Column returns the raw cells of the named column.
func (t *Table) Column(name string) ([]string, error) {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// NumericColumn parses the named column as numbers. Empty or
// non-numeric cells become NaN so positions line up with rows.
func (t *Table) NumericColumn(name string) ([]float64, error) {
	cells, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(cells))
	for i, c := range cells {
		v, ok := ParseNumber(c)
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out, nil
}

// ColumnKinds infers the kind of every column. A column is numeric when
// every non-empty cell parses as a number and at least one does; it is an
// integer column when all those numbers are whole.
func (t *Table) ColumnKinds() map[string]ColumnKind {
	kinds := make(map[string]ColumnKind, len(t.Headers))
	for j, h := range t.Headers {
		kinds[h] = t.inferKind(j)
	}
	return kinds
}

// NumericColumns lists the numeric columns in header order.
func (t *Table) NumericColumns() []string {
	var out []string
	for j, h := range t.Headers {
		if t.inferKind(j).IsNumeric() {
			out = append(out, h)
		}
	}
	return out
}

func (t *Table) inferKind(col int) ColumnKind {
	seen := 0
	integer := true
	for _, row := range t.Rows {
		cell := row[col]
		if cell == "" {
			continue
		}
		v, ok := ParseNumber(cell)
		if !ok {
			return KindText
		}
		seen++
		if v != math.Trunc(v) || strings.ContainsAny(cell, ".eE") {
			integer = false
		}
	}
	if seen == 0 {
		return KindText
	}
	if integer {
		return KindInteger
	}
	return KindFloat
}

// Sample builds a sampling.Sample from one row, using columns as the
// ordered categories. Every cell must hold a non-negative whole number.
func (t *Table) Sample(row int, columns []string) (sampling.Sample, error) {
	if row < 0 || row >= len(t.Rows) {
		return sampling.Sample{}, core.NewNotFoundError(core.ErrRowNotFound, strconv.Itoa(row))
	}
	counts := make([]int64, len(columns))
	for i, name := range columns {
		idx, err := t.ColumnIndex(name)
		if err != nil {
			return sampling.Sample{}, err
		}
		cell := t.Rows[row][idx]
		v, ok := ParseNumber(cell)
		if !ok || v != math.Trunc(v) {
			return sampling.Sample{}, fmt.Errorf("%w: row %d column %q holds %q, want a whole count", core.ErrDomain, row, name, cell)
		}
		counts[i] = int64(v)
	}
	return sampling.NewSample(columns, counts)
}

// Samples builds one sample per row. When columns is empty, every column
// is used.
func (t *Table) Samples(columns []string) ([]sampling.Sample, error) {
	if len(columns) == 0 {
		columns = t.Headers
	}
	out := make([]sampling.Sample, 0, len(t.Rows))
	for i := range t.Rows {
		s, err := t.Sample(i, columns)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// ParseNumber parses a cell as a float, accepting a decimal comma.
func ParseNumber(cell string) (float64, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil && strings.Count(cell, ",") == 1 && !strings.Contains(cell, ".") {
		v, err = strconv.ParseFloat(strings.Replace(cell, ",", ".", 1), 64)
	}
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
