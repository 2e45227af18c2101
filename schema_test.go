package main

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

// fakeSchemaExec fakes the destination for planner and DDL tests: it
// records every executed statement and answers schema-existence probes
// from a fixed set.
type fakeSchemaExec struct {
	existing map[string]bool
	execs    []string
	failOn   func(sql string) error
}

func (f *fakeSchemaExec) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if f.failOn != nil {
		if err := f.failOn(sql); err != nil {
			return pgconn.CommandTag{}, err
		}
	}
	f.execs = append(f.execs, sql)
	return pgconn.CommandTag{}, nil
}

func (f *fakeSchemaExec) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	name, _ := args[0].(string)
	return fakeRow{scan: func(dest ...any) error {
		if b, ok := dest[0].(*bool); ok {
			*b = f.existing[name]
		}
		return nil
	}}
}

func TestResolveTargetSchemaDerivesFirstFreeSlot(t *testing.T) {
	exec := &fakeSchemaExec{existing: map[string]bool{
		"db":   true,
		"db_1": true,
		"db_3": true,
	}}

	got, err := resolveTargetSchema(context.Background(), exec, "", "db")
	if err != nil {
		t.Fatalf("resolveTargetSchema() error: %v", err)
	}
	if got != "db_2" {
		t.Errorf("resolveTargetSchema() = %q, want %q", got, "db_2")
	}
	if len(exec.execs) != 1 || exec.execs[0] != `CREATE SCHEMA "db_2"` {
		t.Errorf("executed %v, want a single CREATE SCHEMA \"db_2\"", exec.execs)
	}
}

func TestResolveTargetSchemaFreeSourceName(t *testing.T) {
	exec := &fakeSchemaExec{existing: map[string]bool{}}
	got, err := resolveTargetSchema(context.Background(), exec, "", "mydb")
	if err != nil {
		t.Fatal(err)
	}
	if got != "mydb" {
		t.Errorf("resolveTargetSchema() = %q, want %q", got, "mydb")
	}
}

func TestResolveTargetSchemaConfiguredExisting(t *testing.T) {
	exec := &fakeSchemaExec{existing: map[string]bool{"keep": true}}
	got, err := resolveTargetSchema(context.Background(), exec, "keep", "db")
	if err != nil {
		t.Fatal(err)
	}
	if got != "keep" {
		t.Errorf("resolveTargetSchema() = %q, want %q", got, "keep")
	}
	if len(exec.execs) != 0 {
		t.Errorf("existing configured schema must be reused, executed %v", exec.execs)
	}
}

func TestResolveTargetSchemaConfiguredMissing(t *testing.T) {
	exec := &fakeSchemaExec{existing: map[string]bool{}}
	got, err := resolveTargetSchema(context.Background(), exec, "fresh", "db")
	if err != nil {
		t.Fatal(err)
	}
	if got != "fresh" {
		t.Errorf("resolveTargetSchema() = %q, want %q", got, "fresh")
	}
	if len(exec.execs) != 1 || exec.execs[0] != `CREATE SCHEMA "fresh"` {
		t.Errorf("executed %v", exec.execs)
	}
}

func TestPgQuote(t *testing.T) {
	tests := []struct{ in, want string }{
		{"users", `"users"`},
		{"MixedCase", `"MixedCase"`},
		{`odd"name`, `"odd""name"`},
	}
	for _, tt := range tests {
		if got := pgQuote(tt.in); got != tt.want {
			t.Errorf("pgQuote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPgLiteral(t *testing.T) {
	if got := pgLiteral("it's"); got != "'it''s'" {
		t.Errorf("pgLiteral = %q", got)
	}
}

func TestPgQualified(t *testing.T) {
	if got := pgQualified("db", "t"); got != `"db"."t"` {
		t.Errorf("pgQualified = %q", got)
	}
}
