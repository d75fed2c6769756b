package relation

import (
	"strings"

	"protovet/internal/dialect"
)

// Model is the structural snapshot of the introspected database schema.
// Built once per run and read-only afterwards.
type Model struct {
	Schema string
	Tables []*Table
}

// Table is one base table with its columns in ordinal order.
type Table struct {
	Name       string
	Columns    []*Column
	PrimaryKey []string
}

// Column is a single column with its normalized type tag.
type Column struct {
	Name       string
	Type       dialect.ColumnType
	Nullable   bool
	HasDefault bool
}

// FindTable looks a table up by name. Catalogs commonly case-fold
// identifiers, so the lookup is case-insensitive unless caseSensitive.
func (m *Model) FindTable(name string, caseSensitive bool) *Table {
	for _, t := range m.Tables {
		if match(t.Name, name, caseSensitive) {
			return t
		}
	}
	return nil
}

// FindColumn looks a column up by name, case-insensitively unless
// caseSensitive.
func (t *Table) FindColumn(name string, caseSensitive bool) *Column {
	for _, c := range t.Columns {
		if match(c.Name, name, caseSensitive) {
			return c
		}
	}
	return nil
}

func match(a, b string, caseSensitive bool) bool {
	if caseSensitive {
		return a == b
	}
	return strings.EqualFold(a, b)
}
