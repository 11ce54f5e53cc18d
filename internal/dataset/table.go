// Package dataset provides the in-memory tabular form both source datasets are loaded into.
package dataset

import (
	"fmt"
	"strings"
)

// Row is a single record keyed by field name. Missing values are empty strings.
type Row map[string]string

// Get returns the value of field, or an empty string when absent.
func (r Row) Get(field string) string {
	return r[field]
}

// Table is an ordered set of rows sharing a field set.
type Table struct {
	// Fields lists the known field names in source order.
	Fields []string
	Rows   []Row
}

// New creates a table with the given fields and rows.
func New(fields []string, rows ...Row) *Table {
	return &Table{
		Fields: fields,
		Rows:   rows,
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}

	return len(t.Rows)
}

// Has reports whether field is part of the table's field set.
func (t *Table) Has(field string) bool {
	if t == nil {
		return false
	}

	for _, f := range t.Fields {
		if f == field {
			return true
		}
	}

	return false
}

// Require returns a SchemaError for the first field missing from the table.
func (t *Table) Require(name string, fields ...string) error {
	for _, field := range fields {
		if !t.Has(field) {
			return &SchemaError{
				Dataset:   name,
				Field:     field,
				Available: t.fieldsCopy(),
			}
		}
	}

	return nil
}

// WithRows returns a new table sharing the field set but holding rows.
func (t *Table) WithRows(rows []Row) *Table {
	return &Table{
		Fields: t.fieldsCopy(),
		Rows:   rows,
	}
}

func (t *Table) fieldsCopy() []string {
	if t == nil {
		return nil
	}

	out := make([]string, len(t.Fields))
	copy(out, t.Fields)

	return out
}

// SchemaError is returned when a required field is absent from a dataset.
type SchemaError struct {
	Dataset   string
	Field     string
	Available []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s dataset has no %q field (available: %s)",
		e.Dataset, e.Field, strings.Join(e.Available, ", "))
}
