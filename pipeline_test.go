package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestChunkParams(t *testing.T) {
	tests := []struct {
		name          string
		sizeMB        int64
		rowCount      int64
		target        int
		wantChunks    int64
		wantPerChunk  int64
	}{
		{"spec bound", 100, 50, 10, 10, 5},
		{"small table one chunk", 1, 1000, 10, 1, 1000},
		{"exact split", 20, 100, 10, 2, 50},
		{"rounding up", 25, 100, 10, 3, 34},
		{"empty table", 5, 0, 10, 1, 1},
		{"zero size floors to one", 0, 10, 10, 1, 10},
		{"target floored at one", 10, 100, 0, 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, perChunk := chunkParams(tt.sizeMB, tt.rowCount, tt.target)
			if chunks != tt.wantChunks || perChunk != tt.wantPerChunk {
				t.Errorf("chunkParams(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.sizeMB, tt.rowCount, tt.target, chunks, perChunk, tt.wantChunks, tt.wantPerChunk)
			}
		})
	}
}

func TestCopyStatement(t *testing.T) {
	tbl := &Table{
		Name: "t",
		Columns: []Column{
			{Field: "a", RawType: "int(11)"},
			{Field: "b", RawType: "varchar(10)"},
		},
	}
	want := `COPY "db"."t" ("a", "b") FROM STDIN`
	if got := copyStatement(tbl, "db"); got != want {
		t.Errorf("copyStatement = %q, want %q", got, want)
	}
}

// fakeCopier fails whole-chunk COPYs and individual lines on demand.
type fakeCopier struct {
	failChunk bool
	failLines map[string]bool
	calls     int
	copied    []string
}

func (f *fakeCopier) CopyFrom(ctx context.Context, r io.Reader, sql string) (int64, error) {
	f.calls++
	data, _ := io.ReadAll(r)
	lines := bytes.Split(bytes.TrimRight(data, "\n"), []byte("\n"))
	if f.failChunk && len(lines) > 1 {
		return 0, errors.New("chunk failed")
	}
	for _, l := range lines {
		if f.failLines[string(l)] {
			return 0, fmt.Errorf("row rejected: %s", l)
		}
	}
	for _, l := range lines {
		f.copied = append(f.copied, string(l))
	}
	return int64(len(lines)), nil
}

func testLogger(t *testing.T) Logger {
	t.Helper()
	log, err := newLogger(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(log.Close)
	return *log
}

// One bad row in a chunk must cost exactly that row, not the chunk.
func TestRowLevelFallback(t *testing.T) {
	log := testLogger(t)

	lines := make([][]byte, 0, 100)
	for i := 0; i < 100; i++ {
		lines = append(lines, []byte(fmt.Sprintf("%d\tv%d\n", i, i)))
	}
	copier := &fakeCopier{
		failChunk: true,
		failLines: map[string]bool{"42\tv42": true},
	}

	if _, err := copyChunk(context.Background(), copier, "COPY x FROM STDIN", lines); err == nil {
		t.Fatal("expected chunk failure")
	}
	ok := copyRowByRow(context.Background(), copier, "COPY x FROM STDIN", lines, "x", log)
	if ok != 99 {
		t.Errorf("copyRowByRow copied %d rows, want 99", ok)
	}
}

func TestCopyChunkJoinsLines(t *testing.T) {
	copier := &fakeCopier{}
	lines := [][]byte{[]byte("1\ta\n"), []byte("2\tb\n")}
	n, err := copyChunk(context.Background(), copier, "COPY x FROM STDIN", lines)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || copier.calls != 1 {
		t.Errorf("copyChunk copied %d rows in %d calls, want 2 rows in 1 call", n, copier.calls)
	}
}

func TestValidateRowDropsUnconvertibleField(t *testing.T) {
	validator, err := newEncodingValidator("UTF-8")
	if err != nil {
		t.Fatal(err)
	}
	cols := []Column{{Field: "v", RawType: "varchar(10)"}}

	// valid UTF-8 passes through untouched
	shaped, ok := validateRow([]sql.RawBytes{sql.RawBytes("héllo")}, cols, validator)
	if !ok || string(shaped[0]) != "héllo" {
		t.Fatalf("valid row rejected: %v %q", ok, shaped)
	}

	// a bare latin1 byte is converted rather than dropped
	shaped, ok = validateRow([]sql.RawBytes{sql.RawBytes{0xE9}}, cols, validator)
	if !ok {
		t.Fatal("convertible latin1 byte dropped the row")
	}
	if string(shaped[0]) != "é" {
		t.Errorf("latin1 0xE9 converted to %q, want %q", shaped[0], "é")
	}

	// nil stays nil
	shaped, ok = validateRow([]sql.RawBytes{nil}, cols, validator)
	if !ok || shaped[0] != nil {
		t.Errorf("nil field mishandled: %v %v", ok, shaped)
	}
}

func TestValidateRowSkipsHexColumns(t *testing.T) {
	validator, err := newEncodingValidator("UTF-8")
	if err != nil {
		t.Fatal(err)
	}
	cols := []Column{{Field: "b", RawType: "blob"}}
	shaped, ok := validateRow([]sql.RawBytes{sql.RawBytes("CAFE")}, cols, validator)
	if !ok || string(shaped[0]) != "CAFE" {
		t.Errorf("hex column mishandled: %v %q", ok, shaped)
	}
}
