package main

import (
	"fmt"
	"strings"

	"github.com/liushuochen/gotable"
)

// formatSummaryReport renders the per-table summary: four columns, each
// cell padded to the widest value in its column, "  |  " separators, a
// horizontal rule after the header and after every row.
func formatSummaryReport(rows []SummaryRow) string {
	header := []string{"TABLE", "RECORDS", "FAILED", "DATA LOAD TIME"}
	cells := make([][]string, 0, len(rows)+1)
	cells = append(cells, header)
	for _, r := range rows {
		cells = append(cells, []string{
			r.Table,
			fmt.Sprintf("%d", r.Rows),
			fmt.Sprintf("%d", r.Failed),
			fmt.Sprintf("%.2fs", r.Elapsed.Seconds()),
		})
	}

	widths := make([]int, len(header))
	for _, row := range cells {
		for i, c := range row {
			if len(c) > widths[i] {
				widths[i] = len(c)
			}
		}
	}

	const sep = "  |  "
	ruleLen := len(sep) * (len(header) - 1)
	for _, w := range widths {
		ruleLen += w
	}
	rule := strings.Repeat("-", ruleLen)

	var b strings.Builder
	for _, row := range cells {
		padded := make([]string, len(row))
		for i, c := range row {
			padded[i] = c + strings.Repeat(" ", widths[i]-len(c))
		}
		b.WriteString(strings.Join(padded, sep))
		b.WriteByte('\n')
		b.WriteString(rule)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// printRunSummary prints the end-of-run console table: what ran, where it
// went, and how it fared.
func printRunSummary(cfg *Config, plan Plan, tables, views, viewsFailed int, totalFailedRows int64, elapsed string) error {
	tbl, err := gotable.Create("TargetSchema", "Tables", "Views", "ViewsFailed", "FailedRows", "Workers", "ChunkMB", "TotalTime")
	if err != nil {
		return err
	}
	_ = tbl.AddRow([]string{
		plan.TargetSchema,
		fmt.Sprintf("%d", tables),
		fmt.Sprintf("%d", views),
		fmt.Sprintf("%d", viewsFailed),
		fmt.Sprintf("%d", totalFailedRows),
		fmt.Sprintf("%d", cfg.Workers),
		fmt.Sprintf("%d", plan.ChunkTargetMB),
		elapsed,
	})
	fmt.Println(tbl)
	return nil
}
