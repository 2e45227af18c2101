package main

import (
	"context"
	"fmt"
	"strings"
)

// pgColumnType returns the destination type for a column. Spatial columns
// receive WKB hex from the shaped SELECT, so their destination type is
// BYTEA rather than the geometric type the mapper would produce.
func pgColumnType(c Column) (string, error) {
	if isSpatialColumn(c) {
		return " BYTEA ", nil
	}
	mapped, err := mapType(c.RawType)
	if err != nil {
		return "", err
	}
	return mapped.PgType, nil
}

// generateCreateTable produces the CREATE TABLE statement for a source
// table, columns in discovery order. Nullability, defaults and checks are
// installed after data load, not here.
func generateCreateTable(t *Table, pgSchema string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", pgQualified(pgSchema, t.Name))

	for i, col := range t.Columns {
		pgType, err := pgColumnType(col)
		if err != nil {
			return "", fmt.Errorf("column %s.%s: %w", t.Name, col.Field, err)
		}
		fmt.Fprintf(&b, "  %s%s", pgQuote(col.Field), strings.TrimRight(pgType, " "))
		if i < len(t.Columns)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}

	b.WriteString(")")
	return b.String(), nil
}

// createTable issues CREATE TABLE and the table comment. A CREATE TABLE
// failure is fatal for the run; a comment failure is logged and skipped.
func createTable(ctx context.Context, exec schemaExecutor, t *Table, pgSchema string, log Logger) error {
	ddl, err := generateCreateTable(t, pgSchema)
	if err != nil {
		return newError(errTableCreate, "", err)
	}
	log.Infof("creating %s.%s", pgSchema, t.Name)
	if _, err := exec.Exec(ctx, ddl); err != nil {
		return newError(errTableCreate, ddl, fmt.Errorf("create table %s: %w", t.Name, err))
	}

	if t.Comment != "" {
		q := fmt.Sprintf("COMMENT ON TABLE %s IS %s", pgQualified(pgSchema, t.Name), pgLiteral(t.Comment))
		if _, err := exec.Exec(ctx, q); err != nil {
			log.Errorf("%v", newError(errDeferredDDL, q, fmt.Errorf("comment on table %s: %w", t.Name, err)))
		}
	}
	return nil
}
