package dialect

type MSSQLDialect struct{}

func (d *MSSQLDialect) Name() string { return "sqlserver" }

func (d *MSSQLDialect) DefaultSchema() string { return "dbo" }

func (d *MSSQLDialect) TablesQuery() string {
	return `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
WHERE TABLE_SCHEMA = @p1 AND TABLE_TYPE = 'BASE TABLE'
ORDER BY TABLE_NAME`
}

func (d *MSSQLDialect) ColumnsQuery() string {
	return `SELECT c.TABLE_NAME, c.COLUMN_NAME, c.DATA_TYPE, c.DATA_TYPE, c.IS_NULLABLE, c.COLUMN_DEFAULT
FROM INFORMATION_SCHEMA.COLUMNS c
WHERE c.TABLE_SCHEMA = @p1
ORDER BY c.TABLE_NAME, c.ORDINAL_POSITION`
}

func (d *MSSQLDialect) PrimaryKeysQuery() string {
	return `SELECT T.TABLE_NAME, C.COLUMN_NAME
FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS T
JOIN INFORMATION_SCHEMA.CONSTRAINT_COLUMN_USAGE C ON T.CONSTRAINT_NAME = C.CONSTRAINT_NAME
WHERE T.CONSTRAINT_TYPE = 'PRIMARY KEY' AND T.TABLE_SCHEMA = @p1
ORDER BY T.TABLE_NAME, C.COLUMN_NAME`
}

func (d *MSSQLDialect) MapColumnType(dataType, secondary string) ColumnType {
	dt := lower(dataType)
	var t ColumnType
	switch dt {
	case "tinyint":
		t = Integer(8)
	case "smallint":
		t = Integer(16)
	case "int":
		t = Integer(32)
	case "bigint":
		t = Integer(64)
	case "real":
		t = Float(32)
	case "float":
		t = Float(64)
	case "bit":
		t = Simple(KindBoolean)
	case "decimal", "numeric", "money", "smallmoney":
		t = Simple(KindNumeric)
	case "char", "nchar", "varchar", "nvarchar", "text", "ntext":
		t = Simple(KindText)
	case "binary", "varbinary", "image":
		t = Simple(KindBinary)
	case "datetime", "datetime2", "datetimeoffset", "smalldatetime":
		t = Simple(KindTimestamp)
	case "date":
		t = Simple(KindDate)
	case "uniqueidentifier":
		t = Simple(KindUUID)
	default:
		t = Unknown(dt)
	}
	t.Raw = dataType
	return t
}
