package relation

import (
	"database/sql"
	"fmt"
	"strings"

	"protovet/internal/dialect"
)

// IntrospectionError wraps any catalog query failure. Introspection is
// all-or-nothing: a partial table list would silently suppress missing-table
// findings downstream.
type IntrospectionError struct {
	Stage string
	Err   error
}

func (e *IntrospectionError) Error() string {
	return fmt.Sprintf("introspection failed while reading %s: %v", e.Stage, e.Err)
}

func (e *IntrospectionError) Unwrap() error { return e.Err }

// Introspect assembles the relation model for one schema from the catalog.
// The single connection is used serially; column order follows catalog
// ordinal position.
func Introspect(db *sql.DB, d dialect.Dialect, schemaName string) (*Model, error) {
	if schemaName == "" {
		schemaName = d.DefaultSchema()
	}

	m := &Model{Schema: schemaName}
	// normalized keys for case-folded catalogs (Oracle reports upper case)
	tableMap := make(map[string]*Table)

	rows, err := db.Query(d.TablesQuery(), schemaName)
	if err != nil {
		return nil, &IntrospectionError{Stage: "tables", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &IntrospectionError{Stage: "tables", Err: err}
		}
		t := &Table{Name: name}
		tableMap[strings.ToUpper(name)] = t
		m.Tables = append(m.Tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &IntrospectionError{Stage: "tables", Err: err}
	}

	colRows, err := db.Query(d.ColumnsQuery(), schemaName)
	if err != nil {
		return nil, &IntrospectionError{Stage: "columns", Err: err}
	}
	defer colRows.Close()

	for colRows.Next() {
		var tName, cName, dataType, secondary, isNull, colDefault sql.NullString
		if err := colRows.Scan(&tName, &cName, &dataType, &secondary, &isNull, &colDefault); err != nil {
			return nil, &IntrospectionError{Stage: "columns", Err: err}
		}
		if !tName.Valid || !cName.Valid {
			continue
		}
		t, ok := tableMap[strings.ToUpper(tName.String)]
		if !ok {
			continue // column of a view or a table outside the listing
		}
		t.Columns = append(t.Columns, &Column{
			Name:       cName.String,
			Type:       d.MapColumnType(dataType.String, secondary.String),
			Nullable:   strings.EqualFold(isNull.String, "YES"),
			HasDefault: colDefault.Valid && colDefault.String != "",
		})
	}
	if err := colRows.Err(); err != nil {
		return nil, &IntrospectionError{Stage: "columns", Err: err}
	}

	pkRows, err := db.Query(d.PrimaryKeysQuery(), schemaName)
	if err != nil {
		return nil, &IntrospectionError{Stage: "primary keys", Err: err}
	}
	defer pkRows.Close()

	for pkRows.Next() {
		var tName, cName sql.NullString
		if err := pkRows.Scan(&tName, &cName); err != nil {
			return nil, &IntrospectionError{Stage: "primary keys", Err: err}
		}
		if t, ok := tableMap[strings.ToUpper(tName.String)]; ok && cName.Valid {
			t.PrimaryKey = append(t.PrimaryKey, cName.String)
		}
	}
	if err := pkRows.Err(); err != nil {
		return nil, &IntrospectionError{Stage: "primary keys", Err: err}
	}

	return m, nil
}
