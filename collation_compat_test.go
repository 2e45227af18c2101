package main

import (
	"strings"
	"testing"
)

func TestCollectCollationWarnings(t *testing.T) {
	schema := &Schema{Tables: []Table{
		{
			Name: "users",
			Columns: []Column{
				{Field: "email", RawType: "varchar(100)", Collation: "utf8mb4_general_ci"},
				{Field: "token", RawType: "varchar(64)", Collation: "utf8mb4_bin"},
			},
			Indexes: []Index{
				{KeyName: "uq_email", Unique: true, Columns: []string{"email"}},
			},
		},
	}}

	warnings := collectCollationWarnings(schema)

	var haveCharset, haveCI, haveUnique bool
	for _, w := range warnings {
		if strings.Contains(w, "source charsets found: utf8mb4") {
			haveCharset = true
		}
		if strings.Contains(w, "utf8mb4_general_ci (case-insensitive)") {
			haveCI = true
		}
		if strings.Contains(w, "users.email") && strings.Contains(w, "uniqueness semantics") {
			haveUnique = true
		}
	}
	if !haveCharset {
		t.Errorf("missing charset summary in %v", warnings)
	}
	if !haveCI {
		t.Errorf("missing _ci warning in %v", warnings)
	}
	if !haveUnique {
		t.Errorf("missing unique-index warning in %v", warnings)
	}
}

func TestCollectCollationWarningsClean(t *testing.T) {
	schema := &Schema{Tables: []Table{
		{Name: "t", Columns: []Column{{Field: "n", RawType: "int(11)"}}},
	}}
	if warnings := collectCollationWarnings(schema); len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
}
