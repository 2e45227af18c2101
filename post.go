package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// execDeferred runs one deferred DDL statement. Failures are logged and
// counted, never fatal: a table without its index is still a migrated table.
func execDeferred(ctx context.Context, exec schemaExecutor, kind errorKind, desc, query string, log Logger) bool {
	if _, err := exec.Exec(ctx, query); err != nil {
		log.Errorf("%v", newError(kind, query, fmt.Errorf("%s: %w", desc, err)))
		return false
	}
	return true
}

// applyDeferredDDL installs everything that had to wait for the data load:
// NOT NULL, DEFAULT, enum checks, column comments, the auto-increment
// sequence, and indexes. Returns the number of failed statements.
func applyDeferredDDL(ctx context.Context, exec schemaExecutor, t *Table, pgSchema string, log Logger) int {
	failed := 0
	qualified := pgQualified(pgSchema, t.Name)

	for _, col := range t.Columns {
		if !col.Nullable {
			q := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", qualified, pgQuote(col.Field))
			if !execDeferred(ctx, exec, errDeferredDDL, t.Name+" not null", q, log) {
				failed++
			}
		}

		if expr, ok := mapDefaultExpr(col); ok {
			q := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", qualified, pgQuote(col.Field), expr)
			if !execDeferred(ctx, exec, errDeferredDDL, t.Name+" default", q, log) {
				failed++
			}
		}

		if isMySQLBase(col.RawType, "enum") {
			if list, err := enumValueList(col.RawType); err == nil {
				q := fmt.Sprintf("ALTER TABLE %s ADD CHECK (%s IN (%s))", qualified, pgQuote(col.Field), list)
				if !execDeferred(ctx, exec, errDeferredDDL, t.Name+" enum check", q, log) {
					failed++
				}
			} else {
				log.Errorf("%v", newError(errDeferredDDL, "", fmt.Errorf("enum values of %s.%s: %w", t.Name, col.Field, err)))
				failed++
			}
		}

		if col.Comment != "" {
			q := fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s", qualified, pgQuote(col.Field), pgLiteral(col.Comment))
			if !execDeferred(ctx, exec, errDeferredDDL, t.Name+" column comment", q, log) {
				failed++
			}
		}
	}

	failed += createAutoIncrementSequence(ctx, exec, t, pgSchema, log)
	failed += createIndexes(ctx, exec, t, pgSchema, log)
	return failed
}

// mapDefaultExpr maps a MySQL column default to a PostgreSQL DEFAULT
// expression. The bool is false when no default should be installed.
func mapDefaultExpr(col Column) (string, bool) {
	if col.Default == nil {
		return "", false
	}
	raw := strings.TrimSpace(*col.Default)
	upper := strings.ToUpper(strings.TrimSuffix(raw, "()"))

	switch upper {
	case "CURRENT_TIMESTAMP", "CURRENT_DATE", "CURRENT_TIME", "LOCALTIME", "LOCALTIMESTAMP":
		return upper, true
	case "NULL":
		return "NULL", true
	case "UTC_TIMESTAMP":
		return "(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')", true
	case "UTC_DATE":
		return "(CURRENT_DATE AT TIME ZONE 'UTC')", true
	case "UTC_TIME":
		return "(CURRENT_TIME AT TIME ZONE 'UTC')", true
	}

	unquoted := raw
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		unquoted = strings.ReplaceAll(raw[1:len(raw)-1], "''", "'")
	}

	switch unquoted {
	case "0000-00-00", "0000-00-00 00:00:00":
		return "'-INFINITY'", true
	}

	// bit defaults come back as b'101'
	if isMySQLBase(col.RawType, "bit") {
		if inner, ok := strings.CutPrefix(raw, "b"); ok {
			return inner + "::bit", true
		}
	}

	if _, err := strconv.ParseFloat(unquoted, 64); err == nil {
		return unquoted, true
	}
	return pgLiteral(unquoted), true
}

// createAutoIncrementSequence wires a sequence to the auto_increment column:
// create it, make it the column default, hand ownership to the column, then
// seed it with MAX(column). A failed step skips the remaining steps; the
// table stays usable either way.
func createAutoIncrementSequence(ctx context.Context, exec schemaExecutor, t *Table, pgSchema string, log Logger) int {
	col := t.AutoIncrementColumn()
	if col == nil {
		return 0
	}

	seqName := fmt.Sprintf("%s_%s_seq", t.Name, col.Field)
	seq := pgQualified(pgSchema, seqName)
	qualified := pgQualified(pgSchema, t.Name)

	steps := []struct {
		desc  string
		query string
	}{
		{"create sequence", fmt.Sprintf("CREATE SEQUENCE %s", seq)},
		{"sequence default", fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT NEXTVAL(%s)",
			qualified, pgQuote(col.Field), pgLiteral(seq))},
		{"sequence ownership", fmt.Sprintf("ALTER SEQUENCE %s OWNED BY %s.%s",
			seq, qualified, pgQuote(col.Field))},
		{"sequence setval", fmt.Sprintf("SELECT SETVAL(%s, (SELECT MAX(%s) FROM %s))",
			pgLiteral(seq), pgQuote(col.Field), qualified)},
	}

	for i, step := range steps {
		if !execDeferred(ctx, exec, errDeferredDDL, t.Name+" "+step.desc, step.query, log) {
			// remaining steps cannot succeed without this one
			return len(steps) - i
		}
	}
	log.Infof("sequence %s.%s wired to %s.%s", pgSchema, seqName, t.Name, col.Field)
	return 0
}

// pgIndexMethod maps a MySQL index method to the PostgreSQL access method.
// SPATIAL indexes land on GIST and FULLTEXT on GIN, best effort.
func pgIndexMethod(method string) string {
	switch strings.ToUpper(method) {
	case "SPATIAL":
		return "GIST"
	case "FULLTEXT":
		return "GIN"
	case "HASH":
		return "HASH"
	default:
		return "BTREE"
	}
}

// createIndexes installs the primary key, unique constraints, and ordinary
// indexes, preserving multi-column order. Index names carry a per-table
// counter so they stay unique within the schema.
func createIndexes(ctx context.Context, exec schemaExecutor, t *Table, pgSchema string, log Logger) int {
	failed := 0
	qualified := pgQualified(pgSchema, t.Name)
	counter := 0

	for _, idx := range t.Indexes {
		if len(idx.Columns) == 0 {
			continue
		}
		cols := quotedColumnList(idx.Columns)

		if idx.IsPrimary() {
			q := fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s)", qualified, cols)
			if !execDeferred(ctx, exec, errDeferredDDL, t.Name+" primary key", q, log) {
				failed++
			}
			continue
		}

		name := fmt.Sprintf("%s_%s_%s%d_idx", pgSchema, t.Name, idx.Columns[0], counter)
		counter++

		if idx.Unique {
			q := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s)", qualified, pgQuote(name), cols)
			if !execDeferred(ctx, exec, errDeferredDDL, t.Name+" unique index", q, log) {
				failed++
			}
			continue
		}

		q := fmt.Sprintf("CREATE INDEX %s ON %s USING %s (%s)",
			pgQuote(name), qualified, pgIndexMethod(idx.Method), cols)
		if !execDeferred(ctx, exec, errDeferredDDL, t.Name+" index", q, log) {
			failed++
		}
	}
	return failed
}

// installForeignKeys runs the global foreign-key phase. Every table is
// created and populated by the time this is called.
func installForeignKeys(ctx context.Context, exec schemaExecutor, schema *Schema, pgSchema string, log Logger) int {
	failed := 0
	for i := range schema.Tables {
		t := &schema.Tables[i]
		for _, fk := range t.ForeignKeys {
			q := fmt.Sprintf(
				"ALTER TABLE %s ADD FOREIGN KEY (%s) REFERENCES %s (%s) ON UPDATE %s ON DELETE %s",
				pgQualified(pgSchema, t.Name),
				quotedColumnList(fk.Columns),
				pgQualified(pgSchema, fk.RefTable),
				quotedColumnList(fk.RefColumns),
				fk.UpdateRule, fk.DeleteRule,
			)
			if !execDeferred(ctx, exec, errForeignKey, t.Name+" foreign key "+fk.Name, q, log) {
				failed++
			}
		}
	}
	return failed
}
