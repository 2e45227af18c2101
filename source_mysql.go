package main

import (
	"database/sql"
	"fmt"
	"slices"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

// mysqlQuote quotes a source identifier for use in MySQL queries.
func mysqlQuote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// openMySQL opens a source connection from a go-sql-driver DSN.
func openMySQL(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, newError(errConnect, "", fmt.Errorf("open mysql: %w", err))
	}
	return db, nil
}

// discoverSchema reads all base tables and views of the source database.
// Tables listed in exclude are skipped.
func discoverSchema(db *sql.DB, dbName string, exclude []string) (*Schema, error) {
	const q = `SELECT TABLE_NAME, TABLE_TYPE, COALESCE(TABLE_COMMENT, ''),
	        GREATEST(1, CEIL((COALESCE(DATA_LENGTH, 0) + COALESCE(INDEX_LENGTH, 0)) / 1024 / 1024))
	 FROM INFORMATION_SCHEMA.TABLES
	 WHERE TABLE_SCHEMA = ? AND TABLE_TYPE IN ('BASE TABLE', 'VIEW')
	 ORDER BY TABLE_NAME`

	rows, err := db.Query(q, dbName)
	if err != nil {
		return nil, newError(errDiscovery, q, fmt.Errorf("list tables: %w", err))
	}
	defer rows.Close()

	schema := &Schema{}
	for rows.Next() {
		var name, kind, comment string
		var sizeMB int64
		if err := rows.Scan(&name, &kind, &comment, &sizeMB); err != nil {
			return nil, newError(errDiscovery, q, fmt.Errorf("scan tables: %w", err))
		}
		if slices.Contains(exclude, name) {
			continue
		}
		switch TableKind(kind) {
		case KindBaseTable:
			schema.Tables = append(schema.Tables, Table{Name: name, Comment: comment, SizeMB: sizeMB})
		case KindView:
			schema.Views = append(schema.Views, View{Name: name})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, newError(errDiscovery, q, err)
	}

	for i := range schema.Tables {
		t := &schema.Tables[i]
		if t.Columns, err = introspectColumns(db, dbName, t.Name); err != nil {
			return nil, err
		}
		if t.Indexes, err = introspectIndexes(db, dbName, t.Name); err != nil {
			return nil, err
		}
		if t.ForeignKeys, err = introspectForeignKeys(db, dbName, t.Name); err != nil {
			return nil, err
		}
		countQ := fmt.Sprintf("SELECT COUNT(*) FROM %s", mysqlQuote(t.Name))
		if err := db.QueryRow(countQ).Scan(&t.RowCount); err != nil {
			return nil, newError(errDiscovery, countQ, fmt.Errorf("count rows of %s: %w", t.Name, err))
		}
	}

	for i := range schema.Views {
		v := &schema.Views[i]
		if v.CreateSQL, err = fetchViewDDL(db, v.Name); err != nil {
			return nil, err
		}
	}

	return schema, nil
}

func introspectColumns(db *sql.DB, dbName, tableName string) ([]Column, error) {
	const q = `SELECT COLUMN_NAME, COLUMN_TYPE, COALESCE(COLLATION_NAME, ''),
	        IS_NULLABLE, COLUMN_DEFAULT, EXTRA, COALESCE(COLUMN_COMMENT, '')
	 FROM INFORMATION_SCHEMA.COLUMNS
	 WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
	 ORDER BY ORDINAL_POSITION`

	rows, err := db.Query(q, dbName, tableName)
	if err != nil {
		return nil, newError(errDiscovery, q, fmt.Errorf("introspect columns for %s: %w", tableName, err))
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var c Column
		var nullable string
		var dflt sql.NullString
		if err := rows.Scan(&c.Field, &c.RawType, &c.Collation, &nullable, &dflt, &c.Extra, &c.Comment); err != nil {
			return nil, newError(errDiscovery, q, err)
		}
		c.RawType = strings.ToLower(c.RawType)
		c.Nullable = nullable == "YES"
		if dflt.Valid {
			c.Default = &dflt.String
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func introspectIndexes(db *sql.DB, dbName, tableName string) ([]Index, error) {
	const q = `SELECT INDEX_NAME, COLUMN_NAME, NON_UNIQUE, SEQ_IN_INDEX, INDEX_TYPE, SUB_PART
	 FROM INFORMATION_SCHEMA.STATISTICS
	 WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
	 ORDER BY INDEX_NAME, SEQ_IN_INDEX`

	rows, err := db.Query(q, dbName, tableName)
	if err != nil {
		return nil, newError(errDiscovery, q, fmt.Errorf("introspect indexes for %s: %w", tableName, err))
	}
	defer rows.Close()

	indexMap := make(map[string]*Index)
	var indexOrder []string

	for rows.Next() {
		var idxName, indexType string
		var colName sql.NullString
		var subPart sql.NullInt64
		var nonUnique, seqInIndex int
		if err := rows.Scan(&idxName, &colName, &nonUnique, &seqInIndex, &indexType, &subPart); err != nil {
			return nil, newError(errDiscovery, q, err)
		}

		idx, ok := indexMap[idxName]
		if !ok {
			idx = &Index{
				KeyName: idxName,
				Unique:  nonUnique == 0,
				Method:  strings.ToUpper(indexType),
			}
			indexMap[idxName] = idx
			indexOrder = append(indexOrder, idxName)
		}

		if subPart.Valid {
			idx.HasPrefix = true
		}
		if !colName.Valid {
			idx.HasExpression = true
			continue
		}
		idx.Columns = append(idx.Columns, colName.String)
	}
	if err := rows.Err(); err != nil {
		return nil, newError(errDiscovery, q, err)
	}

	var indexes []Index
	for _, name := range indexOrder {
		indexes = append(indexes, *indexMap[name])
	}
	return indexes, nil
}

func introspectForeignKeys(db *sql.DB, dbName, tableName string) ([]ForeignKey, error) {
	const q = `SELECT kcu.CONSTRAINT_NAME, kcu.COLUMN_NAME,
	        kcu.REFERENCED_TABLE_NAME, kcu.REFERENCED_COLUMN_NAME,
	        rc.UPDATE_RULE, rc.DELETE_RULE
	 FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
	 JOIN INFORMATION_SCHEMA.REFERENTIAL_CONSTRAINTS rc
	   ON kcu.CONSTRAINT_NAME = rc.CONSTRAINT_NAME
	   AND kcu.TABLE_SCHEMA = rc.CONSTRAINT_SCHEMA
	 WHERE kcu.TABLE_SCHEMA = ? AND kcu.TABLE_NAME = ?
	   AND kcu.REFERENCED_TABLE_NAME IS NOT NULL
	 ORDER BY kcu.CONSTRAINT_NAME, kcu.ORDINAL_POSITION`

	rows, err := db.Query(q, dbName, tableName)
	if err != nil {
		return nil, newError(errDiscovery, q, fmt.Errorf("introspect foreign keys for %s: %w", tableName, err))
	}
	defer rows.Close()

	fkMap := make(map[string]*ForeignKey)
	var fkOrder []string

	for rows.Next() {
		var fkName, colName, refTable, refCol, updateRule, deleteRule string
		if err := rows.Scan(&fkName, &colName, &refTable, &refCol, &updateRule, &deleteRule); err != nil {
			return nil, newError(errDiscovery, q, err)
		}

		fk, ok := fkMap[fkName]
		if !ok {
			fk = &ForeignKey{
				Name:       fkName,
				RefTable:   refTable,
				UpdateRule: updateRule,
				DeleteRule: deleteRule,
			}
			fkMap[fkName] = fk
			fkOrder = append(fkOrder, fkName)
		}
		fk.Columns = append(fk.Columns, colName)
		fk.RefColumns = append(fk.RefColumns, refCol)
	}
	if err := rows.Err(); err != nil {
		return nil, newError(errDiscovery, q, err)
	}

	var fks []ForeignKey
	for _, name := range fkOrder {
		fks = append(fks, *fkMap[name])
	}
	return fks, nil
}

// fetchViewDDL returns the second column of SHOW CREATE VIEW.
func fetchViewDDL(db *sql.DB, viewName string) (string, error) {
	q := fmt.Sprintf("SHOW CREATE VIEW %s", mysqlQuote(viewName))
	var name, createSQL, charset, collation string
	if err := db.QueryRow(q).Scan(&name, &createSQL, &charset, &collation); err != nil {
		return "", newError(errDiscovery, q, fmt.Errorf("show create view %s: %w", viewName, err))
	}
	return createSQL, nil
}

// --- column classification for projection shaping and the row encoder ---

func isSpatialColumn(c Column) bool {
	return isMySQLBase(c.RawType, "geometry", "point", "linestring", "polygon")
}

func isBinaryColumn(c Column) bool {
	return isMySQLBase(c.RawType, "binary", "varbinary", "tinyblob", "blob", "mediumblob", "longblob")
}

func isBitColumn(c Column) bool {
	return isMySQLBase(c.RawType, "bit")
}

func isTemporalColumn(c Column) bool {
	return isMySQLBase(c.RawType, "date", "datetime", "timestamp")
}

// needsHexPrefix reports whether the column's projected value is hex digits
// that the encoder must deliver as bytea hex input (\x…).
func needsHexPrefix(c Column) bool {
	return isBinaryColumn(c) || isSpatialColumn(c)
}

// buildSelectProjection shapes the SELECT list so every value arrives in a
// form the COPY encoder can pass through: spatial as WKB hex, bit as a
// '0'/'1' string, binary as hex, and MySQL zero dates as the PostgreSQL
// -INFINITY sentinel.
func buildSelectProjection(t *Table) string {
	parts := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		q := mysqlQuote(c.Field)
		switch {
		case isSpatialColumn(c):
			parts[i] = fmt.Sprintf("HEX(ST_AsWKB(%s)) AS %s", q, q)
		case isBitColumn(c):
			parts[i] = fmt.Sprintf("BIN(%s) AS %s", q, q)
		case isBinaryColumn(c):
			parts[i] = fmt.Sprintf("HEX(%s) AS %s", q, q)
		case isTemporalColumn(c):
			parts[i] = fmt.Sprintf("IF(%s IN ('0000-00-00','0000-00-00 00:00:00'), '-INFINITY', %s) AS %s", q, q, q)
		default:
			parts[i] = q
		}
	}
	return strings.Join(parts, ", ")
}
