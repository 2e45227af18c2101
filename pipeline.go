package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
)

// bulkCopier is the COPY FROM STDIN surface of the destination, small
// enough to fake in tests. The production implementation wraps
// pgconn.PgConn.CopyFrom.
type bulkCopier interface {
	CopyFrom(ctx context.Context, r io.Reader, sql string) (int64, error)
}

// chunkParams sizes COPY batches from the table's on-disk footprint: enough
// chunks that each stays near the MB budget, rows spread evenly across them.
func chunkParams(sizeMB, rowCount int64, chunkTargetMB int) (chunks, rowsPerChunk int64) {
	if sizeMB < 1 {
		sizeMB = 1
	}
	target := int64(chunkTargetMB)
	if target < 1 {
		target = 1
	}
	chunks = (sizeMB + target - 1) / target
	if chunks < 1 {
		chunks = 1
	}
	rowsPerChunk = (rowCount + chunks - 1) / chunks
	if rowsPerChunk < 1 {
		rowsPerChunk = 1
	}
	return chunks, rowsPerChunk
}

// copyStatement builds the COPY target for a table: text-format COPY with
// an explicit column list in discovery order.
func copyStatement(t *Table, pgSchema string) string {
	return fmt.Sprintf("COPY %s (%s) FROM STDIN", pgQualified(pgSchema, t.Name), quotedColumnList(colFields(t)))
}

func colFields(t *Table) []string {
	fields := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		fields[i] = c.Field
	}
	return fields
}

// transferTable streams the table from the source into the destination in
// chunks. A failed chunk is replayed row by row so one bad row never loses
// its chunk; rows invalid in the target encoding are dropped and logged.
// Returns the number of rows actually copied.
func transferTable(ctx context.Context, src *sql.DB, dest bulkCopier, t *Table, pgSchema string, plan Plan, validator *encodingValidator, log Logger) (int64, error) {
	_, rowsPerChunk := chunkParams(t.SizeMB, t.RowCount, plan.ChunkTargetMB)

	query := fmt.Sprintf("SELECT %s FROM %s", buildSelectProjection(t), mysqlQuote(t.Name))
	rows, err := src.QueryContext(ctx, query)
	if err != nil {
		return 0, newError(errDataRow, query, fmt.Errorf("select %s: %w", t.Name, err))
	}
	defer rows.Close()

	enc := newCopyEncoder(t.Columns)
	copySQL := copyStatement(t, pgSchema)

	values := make([]sql.RawBytes, len(t.Columns))
	scanArgs := make([]any, len(values))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	var copied int64
	var chunk [][]byte // encoded lines of the pending chunk
	var rowBuf bytes.Buffer

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		n, err := copyChunk(ctx, dest, copySQL, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// replay the chunk one row at a time; only the bad rows are lost
			n = copyRowByRow(ctx, dest, copySQL, chunk, t.Name, log)
		}
		copied += n
		chunk = chunk[:0]
		return ctx.Err()
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return copied, newError(errDataRow, query, fmt.Errorf("scan %s: %w", t.Name, err))
		}

		shaped, ok := validateRow(values, t.Columns, validator)
		if !ok {
			log.RejectedRow(t.Name, rawRowText(values))
			continue
		}

		rowBuf.Reset()
		enc.EncodeRow(&rowBuf, shaped)
		chunk = append(chunk, append([]byte(nil), rowBuf.Bytes()...))

		if int64(len(chunk)) >= rowsPerChunk {
			if err := flush(); err != nil {
				return copied, err
			}
		}
	}
	if err := rows.Err(); err != nil {
		return copied, newError(errDataRow, query, fmt.Errorf("stream %s: %w", t.Name, err))
	}
	if err := flush(); err != nil {
		return copied, err
	}
	return copied, nil
}

// validateRow checks each non-null field against the target encoding,
// converting where possible. ok is false when the row must be dropped.
func validateRow(values []sql.RawBytes, cols []Column, validator *encodingValidator) ([][]byte, bool) {
	shaped := make([][]byte, len(values))
	for i, val := range values {
		if val == nil {
			continue
		}
		// hex projections are pure ASCII; no validation needed
		if needsHexPrefix(cols[i]) || isBitColumn(cols[i]) {
			shaped[i] = val
			continue
		}
		converted, ok := validator.ValidateField(val)
		if !ok {
			return nil, false
		}
		shaped[i] = converted
	}
	return shaped, true
}

// copyChunk sends all encoded lines in one COPY invocation.
func copyChunk(ctx context.Context, dest bulkCopier, copySQL string, lines [][]byte) (int64, error) {
	return dest.CopyFrom(ctx, bytes.NewReader(bytes.Join(lines, nil)), copySQL)
}

// copyRowByRow re-issues COPY once per line. Rows that still fail are
// written verbatim to the error sink and counted against the table.
func copyRowByRow(ctx context.Context, dest bulkCopier, copySQL string, lines [][]byte, tableName string, log Logger) int64 {
	var ok int64
	for _, line := range lines {
		if _, err := dest.CopyFrom(ctx, bytes.NewReader(line), copySQL); err != nil {
			log.RejectedRow(tableName, string(bytes.TrimRight(line, "\n")))
			continue
		}
		ok++
	}
	return ok
}

// rawRowText renders the raw scanned values of a rejected row for the log.
func rawRowText(values []sql.RawBytes) string {
	var b bytes.Buffer
	for i, v := range values {
		if i > 0 {
			b.WriteByte('\t')
		}
		if v == nil {
			b.WriteString(copyNull)
		} else {
			b.Write(v)
		}
	}
	return b.String()
}
