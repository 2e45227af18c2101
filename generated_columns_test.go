package main

import (
	"strings"
	"testing"
)

func TestCollectGeneratedColumnWarnings(t *testing.T) {
	schema := &Schema{Tables: []Table{{
		Name: "t",
		Columns: []Column{
			{Field: "plain", RawType: "int(11)"},
			{Field: "virt", RawType: "int(11)", Extra: "VIRTUAL GENERATED"},
			{Field: "stored", RawType: "int(11)", Extra: "STORED GENERATED"},
		},
	}}}

	warnings := collectGeneratedColumnWarnings(schema)
	if len(warnings) != 2 {
		t.Fatalf("warnings = %v", warnings)
	}
	if !strings.Contains(warnings[0], "t.virt") || !strings.Contains(warnings[1], "t.stored") {
		t.Errorf("warnings name wrong columns: %v", warnings)
	}
}

func TestCollectGeneratedColumnWarningsNilSchema(t *testing.T) {
	if warnings := collectGeneratedColumnWarnings(nil); warnings != nil {
		t.Errorf("nil schema should produce no warnings, got %v", warnings)
	}
}
