package dialect

import "strings"

type PostgresDialect struct{}

func (d *PostgresDialect) Name() string { return "postgres" }

func (d *PostgresDialect) DefaultSchema() string { return "public" }

func (d *PostgresDialect) TablesQuery() string {
	return `SELECT table_name FROM information_schema.tables
WHERE table_schema = $1 AND table_type = 'BASE TABLE'
ORDER BY table_name`
}

func (d *PostgresDialect) ColumnsQuery() string {
	// udt_name carries the precise type (int4, _text, ...) where data_type
	// is generic ("ARRAY", "USER-DEFINED").
	return `SELECT c.table_name, c.column_name, c.data_type, c.udt_name, c.is_nullable, c.column_default
FROM information_schema.columns c
WHERE c.table_schema = $1
ORDER BY c.table_name, c.ordinal_position`
}

func (d *PostgresDialect) PrimaryKeysQuery() string {
	return `SELECT kcu.table_name, kcu.column_name
FROM information_schema.key_column_usage kcu
JOIN information_schema.table_constraints tc ON kcu.constraint_name = tc.constraint_name
WHERE kcu.table_schema = $1 AND tc.constraint_type = 'PRIMARY KEY'
ORDER BY kcu.table_name, kcu.ordinal_position`
}

func (d *PostgresDialect) MapColumnType(dataType, secondary string) ColumnType {
	udt := lower(secondary)
	if udt == "" {
		udt = lower(dataType)
	}
	// array types surface with a leading underscore on the element udt
	if strings.HasPrefix(udt, "_") {
		elem := d.MapColumnType("", strings.TrimPrefix(udt, "_"))
		t := Array(elem)
		t.Raw = secondary
		return t
	}
	t := pgScalarType(udt)
	t.Raw = secondary
	return t
}

func pgScalarType(udt string) ColumnType {
	switch udt {
	case "int2", "smallint", "smallserial":
		return Integer(16)
	case "int4", "integer", "serial":
		return Integer(32)
	case "int8", "bigint", "bigserial":
		return Integer(64)
	case "float4", "real":
		return Float(32)
	case "float8", "double precision":
		return Float(64)
	case "bool", "boolean":
		return Simple(KindBoolean)
	case "text", "varchar", "bpchar", "char", "citext", "name", "character varying", "character":
		return Simple(KindText)
	case "bytea":
		return Simple(KindBinary)
	case "timestamp", "timestamptz", "timestamp without time zone", "timestamp with time zone":
		return Simple(KindTimestamp)
	case "date":
		return Simple(KindDate)
	case "uuid":
		return Simple(KindUUID)
	case "numeric", "decimal", "money":
		return Simple(KindNumeric)
	case "json", "jsonb":
		return Simple(KindJSON)
	default:
		return Unknown(udt)
	}
}
