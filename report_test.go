package main

import (
	"strings"
	"testing"
	"time"
)

func TestFormatSummaryReport(t *testing.T) {
	rows := []SummaryRow{
		{Table: "db.users", Rows: 12345, Failed: 0, Elapsed: 1500 * time.Millisecond},
		{Table: "db.t", Rows: 3, Failed: 1, Elapsed: 20 * time.Millisecond},
	}

	got := formatSummaryReport(rows)
	lines := strings.Split(got, "\n")

	// header + rule, then a row + rule per table
	if len(lines) != 6 {
		t.Fatalf("got %d lines:\n%s", len(lines), got)
	}

	header := lines[0]
	for _, col := range []string{"TABLE", "RECORDS", "FAILED", "DATA LOAD TIME"} {
		if !strings.Contains(header, col) {
			t.Errorf("header %q missing column %q", header, col)
		}
	}
	if !strings.Contains(header, "  |  ") {
		t.Errorf("header %q missing separator", header)
	}

	// every non-rule line must be the same width as the header
	if len(lines[2]) != len(header) || len(lines[4]) != len(header) {
		t.Errorf("cells not padded to column width:\n%s", got)
	}

	// rules separate every row
	for _, i := range []int{1, 3, 5} {
		if strings.Trim(lines[i], "-") != "" {
			t.Errorf("line %d is not a horizontal rule: %q", i, lines[i])
		}
	}

	if !strings.Contains(lines[2], "12345") || !strings.Contains(lines[4], "0.02s") {
		t.Errorf("row content wrong:\n%s", got)
	}
}

func TestFormatSummaryReportEmpty(t *testing.T) {
	got := formatSummaryReport(nil)
	if !strings.Contains(got, "TABLE") {
		t.Errorf("empty report should still carry the header, got:\n%s", got)
	}
}
