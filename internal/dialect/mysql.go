package dialect

import "strings"

type MysqlDialect struct{}

func (d *MysqlDialect) Name() string { return "mysql" }

// MySQL has no schema distinct from the database; the caller passes the
// current database name.
func (d *MysqlDialect) DefaultSchema() string { return "" }

func (d *MysqlDialect) TablesQuery() string {
	return `SELECT TABLE_NAME FROM information_schema.TABLES
WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
ORDER BY TABLE_NAME`
}

func (d *MysqlDialect) ColumnsQuery() string {
	// COLUMN_TYPE keeps display width, which distinguishes tinyint(1)
	// booleans from plain tinyints.
	return `SELECT TABLE_NAME, COLUMN_NAME, DATA_TYPE, COLUMN_TYPE, IS_NULLABLE, COLUMN_DEFAULT
FROM information_schema.COLUMNS
WHERE TABLE_SCHEMA = ?
ORDER BY TABLE_NAME, ORDINAL_POSITION`
}

func (d *MysqlDialect) PrimaryKeysQuery() string {
	return `SELECT TABLE_NAME, COLUMN_NAME FROM information_schema.COLUMNS
WHERE TABLE_SCHEMA = ? AND COLUMN_KEY = 'PRI'
ORDER BY TABLE_NAME, ORDINAL_POSITION`
}

func (d *MysqlDialect) MapColumnType(dataType, secondary string) ColumnType {
	dt := lower(dataType)
	ct := lower(secondary)
	var t ColumnType
	switch dt {
	case "tinyint":
		if strings.HasPrefix(ct, "tinyint(1)") {
			t = Simple(KindBoolean)
		} else {
			t = Integer(8)
		}
	case "smallint", "year":
		t = Integer(16)
	case "mediumint", "int", "integer":
		t = Integer(32)
	case "bigint":
		t = Integer(64)
	case "float":
		t = Float(32)
	case "double", "real":
		t = Float(64)
	case "bit":
		t = Simple(KindBoolean)
	case "decimal", "numeric":
		t = Simple(KindNumeric)
	case "char", "varchar", "text", "tinytext", "mediumtext", "longtext", "enum", "set":
		t = Simple(KindText)
	case "binary", "varbinary", "blob", "tinyblob", "mediumblob", "longblob":
		t = Simple(KindBinary)
	case "datetime", "timestamp":
		t = Simple(KindTimestamp)
	case "date":
		t = Simple(KindDate)
	case "json":
		t = Simple(KindJSON)
	default:
		t = Unknown(dt)
	}
	t.Raw = dataType
	return t
}
