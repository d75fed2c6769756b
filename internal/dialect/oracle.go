package dialect

import "strings"

type OracleDialect struct{}

func (d *OracleDialect) Name() string { return "oracle" }

// Oracle introspection runs against the current user's objects; the schema
// argument only feeds the bind placeholder the shared introspector supplies.
func (d *OracleDialect) DefaultSchema() string { return "user" }

func (d *OracleDialect) TablesQuery() string {
	return `SELECT TABLE_NAME FROM USER_TABLES WHERE :1 IS NOT NULL ORDER BY TABLE_NAME`
}

func (d *OracleDialect) ColumnsQuery() string {
	// NUMBER with a scale is a decimal; NUMBER without one is an integer.
	return `SELECT
    t.TABLE_NAME,
    t.COLUMN_NAME,
    CASE
        WHEN t.DATA_TYPE = 'NUMBER' AND COALESCE(t.DATA_SCALE, 0) > 0 THEN 'DECIMAL'
        WHEN t.DATA_TYPE = 'NUMBER' THEN 'INTEGER'
        ELSE t.DATA_TYPE
    END,
    t.DATA_TYPE,
    CASE WHEN t.NULLABLE = 'Y' THEN 'YES' ELSE 'NO' END,
    t.DATA_DEFAULT
FROM USER_TAB_COLUMNS t
WHERE :1 IS NOT NULL
ORDER BY t.TABLE_NAME, t.COLUMN_ID`
}

func (d *OracleDialect) PrimaryKeysQuery() string {
	return `SELECT cc.TABLE_NAME, cc.COLUMN_NAME
FROM USER_CONS_COLUMNS cc
JOIN USER_CONSTRAINTS uc ON cc.CONSTRAINT_NAME = uc.CONSTRAINT_NAME
WHERE uc.CONSTRAINT_TYPE = 'P' AND :1 IS NOT NULL
ORDER BY cc.TABLE_NAME, cc.POSITION`
}

func (d *OracleDialect) MapColumnType(dataType, secondary string) ColumnType {
	dt := lower(dataType)
	var t ColumnType
	switch {
	case dt == "integer" || dt == "smallint" || dt == "int":
		t = Integer(64) // NUMBER carries up to 38 digits; widest tag fits best
	case dt == "decimal" || dt == "number" || dt == "numeric":
		t = Simple(KindNumeric)
	case dt == "binary_float":
		t = Float(32)
	case dt == "binary_double" || dt == "float":
		t = Float(64)
	case dt == "date":
		// Oracle DATE carries a time component
		t = Simple(KindTimestamp)
	case strings.HasPrefix(dt, "timestamp"):
		t = Simple(KindTimestamp)
	case dt == "blob" || dt == "raw" || dt == "long raw":
		t = Simple(KindBinary)
	case strings.Contains(dt, "char") || dt == "clob" || dt == "nclob" || dt == "long":
		t = Simple(KindText)
	default:
		t = Unknown(dt)
	}
	t.Raw = dataType
	return t
}
