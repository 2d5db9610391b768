package importer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/the-ledger-must-balance/internal/model"
)

// Decoder turns a file into a table.
type Decoder interface {
	Decode(ctx context.Context, r io.Reader) (*Table, error)
}

// Table is a decoded file: ordered headers and their rows.
type Table struct {
	Headers []string
	Rows    []Row
}

// Row maps header to cell text. It is not modified after decoding.
type Row struct {
	cells map[string]string
}

// NewRow zips headers with values. Missing trailing values are empty and
// extra values are ignored.
func NewRow(headers, values []string) Row {
	cells := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(values) {
			cells[h] = strings.TrimSpace(values[i])
		} else {
			cells[h] = ""
		}
	}
	return Row{cells: cells}
}

// Cell returns the text under header.
func (r Row) Cell(header string) (string, bool) {
	v, ok := r.cells[header]
	return v, ok
}

// Value returns the cell mapped to field.
func (r Row) Value(m model.ColumnMapping, field model.Field) (string, bool) {
	return m.Value(r.cells, field)
}

// Blank reports whether every cell is empty.
func (r Row) Blank() bool {
	for _, v := range r.cells {
		if v != "" {
			return false
		}
	}
	return true
}

// newTable builds a table from a header record and data records, dropping
// blank rows. Blank or repeated headers are renamed ColumnN.
func newTable(headers []string, records [][]string) *Table {
	headers = uniqueHeaders(headers)
	t := &Table{Headers: headers}
	for _, rec := range records {
		row := NewRow(headers, rec)
		if row.Blank() {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func uniqueHeaders(headers []string) []string {
	out := make([]string, len(headers))
	seen := make(map[string]bool, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" || seen[h] {
			h = fmt.Sprintf("Column%d", i)
		}
		seen[h] = true
		out[i] = h
	}
	return out
}
