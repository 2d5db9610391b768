package model

import (
	"errors"
	"fmt"
	"sort"
)

// Field is a logical transaction attribute a tabular column can supply.
type Field string

// Mappable fields.
const (
	FieldAmount      Field = "amount"
	FieldDate        Field = "date"
	FieldType        Field = "type"
	FieldCategory    Field = "category"
	FieldDescription Field = "description"
	FieldAccount     Field = "account"
)

// Fields lists every mappable field in display order.
var Fields = []Field{FieldAmount, FieldDate, FieldType, FieldCategory, FieldDescription, FieldAccount}

// ErrAmountUnmapped is returned when a mapping has no amount column.
var ErrAmountUnmapped = errors.New("column mapping has no amount column")

// ParseField maps user input onto a Field.
func ParseField(s string) (Field, bool) {
	f := Field(normalizeEnum(s))
	for _, known := range Fields {
		if f == known {
			return f, true
		}
	}
	return "", false
}

// ColumnMapping assigns source column headers to logical fields.
// Absence of a field is an explicit state checked through Column.
type ColumnMapping struct {
	columns map[Field]string
}

// NewColumnMapping returns an empty mapping.
func NewColumnMapping() ColumnMapping {
	return ColumnMapping{columns: make(map[Field]string)}
}

// Set maps field to header, replacing any previous assignment.
func (m *ColumnMapping) Set(field Field, header string) {
	if m.columns == nil {
		m.columns = make(map[Field]string)
	}
	m.columns[field] = header
}

// Clear removes the mapping for field.
func (m *ColumnMapping) Clear(field Field) {
	delete(m.columns, field)
}

// Column returns the header mapped to field.
func (m ColumnMapping) Column(field Field) (string, bool) {
	h, ok := m.columns[field]
	return h, ok
}

// Len returns the number of mapped fields.
func (m ColumnMapping) Len() int {
	return len(m.columns)
}

// Validate checks the mapping can drive an import.
func (m ColumnMapping) Validate() error {
	if _, ok := m.columns[FieldAmount]; !ok {
		return ErrAmountUnmapped
	}
	return nil
}

// Value looks up field in a row through the mapping.
// It reports false when the field is unmapped or the row has no such column.
func (m ColumnMapping) Value(row map[string]string, field Field) (string, bool) {
	header, ok := m.columns[field]
	if !ok {
		return "", false
	}
	v, ok := row[header]
	return v, ok
}

// String renders the mapping as sorted field=header pairs.
func (m ColumnMapping) String() string {
	keys := make([]string, 0, len(m.columns))
	for f, h := range m.columns {
		keys = append(keys, fmt.Sprintf("%s=%s", f, h))
	}
	sort.Strings(keys)
	return fmt.Sprint(keys)
}
