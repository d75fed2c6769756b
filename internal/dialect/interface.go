package dialect

import (
	"fmt"
	"strings"
)

// Kind is the vendor-neutral column type vocabulary. Every dialect
// normalizes its catalog spellings into these tags so the compatibility
// engine never sees vendor-specific type names.
type Kind int

const (
	KindUnknown Kind = iota
	KindInteger
	KindFloat
	KindText
	KindBoolean
	KindBinary
	KindTimestamp
	KindDate
	KindUUID
	KindNumeric
	KindJSON
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBoolean:
		return "boolean"
	case KindBinary:
		return "binary"
	case KindTimestamp:
		return "timestamp"
	case KindDate:
		return "date"
	case KindUUID:
		return "uuid"
	case KindNumeric:
		return "numeric"
	case KindJSON:
		return "json"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// ColumnType is a normalized column type tag. Width is the bit width for
// integer and float kinds; Elem is the element type for arrays; Raw keeps
// the catalog spelling for diagnostics.
type ColumnType struct {
	Kind  Kind
	Width int
	Elem  *ColumnType
	Raw   string
}

func (t ColumnType) String() string {
	switch t.Kind {
	case KindInteger, KindFloat:
		return fmt.Sprintf("%s(%d)", t.Kind, t.Width)
	case KindArray:
		if t.Elem != nil {
			return fmt.Sprintf("array(%s)", t.Elem)
		}
		return "array"
	case KindUnknown:
		if t.Raw != "" {
			return fmt.Sprintf("unknown(%s)", t.Raw)
		}
		return "unknown"
	default:
		return t.Kind.String()
	}
}

// Integer, Float, Simple and Array are ColumnType constructors used by the
// dialects and by tests.
func Integer(width int) ColumnType { return ColumnType{Kind: KindInteger, Width: width} }
func Float(width int) ColumnType   { return ColumnType{Kind: KindFloat, Width: width} }
func Simple(k Kind) ColumnType     { return ColumnType{Kind: k} }
func Array(elem ColumnType) ColumnType {
	return ColumnType{Kind: KindArray, Elem: &elem}
}

// Unknown tags a type the dialect could not normalize.
func Unknown(raw string) ColumnType { return ColumnType{Kind: KindUnknown, Raw: raw} }

// Dialect abstracts database-specific catalog access for introspection.
// Query methods return SQL with a single placeholder for the schema name,
// in the placeholder style of the dialect's driver.
type Dialect interface {
	Name() string

	// DefaultSchema is the schema introspected when the config names none.
	DefaultSchema() string

	// TablesQuery selects base table names: (table_name).
	TablesQuery() string

	// ColumnsQuery selects columns in ordinal order:
	// (table_name, column_name, data_type, secondary_type, is_nullable,
	// column_default). secondary_type is a dialect-specific refinement
	// (udt_name on postgres, column_type on mysql) and may be NULL.
	ColumnsQuery() string

	// PrimaryKeysQuery selects (table_name, column_name) pairs of primary
	// key members.
	PrimaryKeysQuery() string

	// MapColumnType normalizes a catalog type spelling into the neutral
	// vocabulary. dataType and secondary come from ColumnsQuery.
	MapColumnType(dataType, secondary string) ColumnType
}

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
