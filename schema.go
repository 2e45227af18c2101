package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgQuote returns a double-quoted PostgreSQL identifier. Destination
// identifiers keep the exact source spelling, so quoting is unconditional
// (unquoted identifiers would be folded to lowercase).
func pgQuote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// pgQualified returns "<schema>"."<name>".
func pgQualified(schema, name string) string {
	return pgQuote(schema) + "." + pgQuote(name)
}

// pgLiteral returns a single-quoted PostgreSQL string literal.
func pgLiteral(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// quotedColumnList joins column names with proper quoting.
func quotedColumnList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgQuote(c)
	}
	return strings.Join(quoted, ", ")
}

// schemaExecutor is the slice of pgx used by the schema planner, small
// enough to fake in tests.
type schemaExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// resolveTargetSchema picks the destination schema name and makes sure it
// exists. An operator-supplied name is reused when present and created when
// not. With no configured name the source database name is probed against
// information_schema.schemata, appending _1, _2, ... until the first free
// candidate.
func resolveTargetSchema(ctx context.Context, exec schemaExecutor, configured, sourceDB string) (string, error) {
	if configured != "" {
		exists, err := schemaExists(ctx, exec, configured)
		if err != nil {
			return "", err
		}
		if !exists {
			if err := createSchema(ctx, exec, configured); err != nil {
				return "", err
			}
		}
		return configured, nil
	}

	candidate := sourceDB
	for n := 1; ; n++ {
		exists, err := schemaExists(ctx, exec, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			break
		}
		candidate = fmt.Sprintf("%s_%d", sourceDB, n)
	}
	if err := createSchema(ctx, exec, candidate); err != nil {
		return "", err
	}
	return candidate, nil
}

func schemaExists(ctx context.Context, exec schemaExecutor, name string) (bool, error) {
	const q = "SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)"
	var exists bool
	if err := exec.QueryRow(ctx, q, name).Scan(&exists); err != nil {
		return false, newError(errSchema, q, fmt.Errorf("check schema existence: %w", err))
	}
	return exists, nil
}

func createSchema(ctx context.Context, exec schemaExecutor, name string) error {
	q := fmt.Sprintf("CREATE SCHEMA %s", pgQuote(name))
	if _, err := exec.Exec(ctx, q); err != nil {
		return newError(errSchema, q, fmt.Errorf("create schema: %w", err))
	}
	return nil
}

// collectStringRows is a helper to collect single-column string results.
func collectStringRows(db *sql.DB, query, param string, out *[]string) error {
	rows, err := db.Query(query, param)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return err
		}
		*out = append(*out, v)
	}
	return rows.Err()
}
