package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"two statements", "SELECT 1; SELECT 2;", []string{"SELECT 1", "SELECT 2"}},
		{"trailing without semicolon", "SELECT 1", []string{"SELECT 1"}},
		{"semicolon in string", "INSERT INTO t VALUES ('a;b'); SELECT 1;", []string{"INSERT INTO t VALUES ('a;b')", "SELECT 1"}},
		{"escaped quote", "SELECT 'it''s;fine'; SELECT 2;", []string{"SELECT 'it''s;fine'", "SELECT 2"}},
		{"empty entries skipped", ";;SELECT 1;;", []string{"SELECT 1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitStatements(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("splitStatements(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("statement %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRunHookFilesExpandsSchema(t *testing.T) {
	dir := t.TempDir()
	hook := filepath.Join(dir, "fix.sql")
	if err := os.WriteFile(hook, []byte("DELETE FROM {{schema}}.t WHERE id < 0;"), 0o644); err != nil {
		t.Fatal(err)
	}

	exec := &fakeSchemaExec{}
	log := testLogger(t)
	cfg := &Config{configDir: dir}

	if err := runHookFiles(context.Background(), exec, cfg, "db", []string{"fix.sql"}, "before_fk", log); err != nil {
		t.Fatal(err)
	}
	if len(exec.execs) != 1 || exec.execs[0] != "DELETE FROM db.t WHERE id < 0" {
		t.Errorf("executed %v", exec.execs)
	}
}

func TestRunHookFilesMissingFile(t *testing.T) {
	exec := &fakeSchemaExec{}
	log := testLogger(t)
	cfg := &Config{configDir: t.TempDir()}

	if err := runHookFiles(context.Background(), exec, cfg, "db", []string{"nope.sql"}, "after_all", log); err == nil {
		t.Fatal("expected error for missing hook file")
	}
}
