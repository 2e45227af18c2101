package main

import (
	"fmt"
	"sort"
	"strings"
)

// collectCollationWarnings reports charset/collation information found in
// the discovered schema. Case-insensitive (_ci) collations become
// case-sensitive text in PostgreSQL, which silently changes comparison and
// uniqueness semantics, so they are called out — loudest where they sit
// under a unique index or primary key.
func collectCollationWarnings(schema *Schema) []string {
	charsets := make(map[string]bool)
	collations := make(map[string]bool)
	// _ci collation → count of columns using it
	ciCounts := make(map[string]int)
	// _ci collation → list of "table.column" with unique/PK indexes
	ciUniqueRefs := make(map[string][]string)

	for _, t := range schema.Tables {
		uniqueCols := make(map[string]bool)
		for _, idx := range t.Indexes {
			if idx.Unique {
				for _, c := range idx.Columns {
					uniqueCols[c] = true
				}
			}
		}

		for _, col := range t.Columns {
			if col.Collation == "" {
				continue
			}
			collations[col.Collation] = true
			if i := strings.IndexByte(col.Collation, '_'); i > 0 {
				charsets[col.Collation[:i]] = true
			}
			if strings.HasSuffix(strings.ToLower(col.Collation), "_ci") {
				ciCounts[col.Collation]++
				if uniqueCols[col.Field] {
					ciUniqueRefs[col.Collation] = append(ciUniqueRefs[col.Collation],
						fmt.Sprintf("%s.%s", t.Name, col.Field))
				}
			}
		}
	}

	var warnings []string

	if len(charsets) > 0 {
		warnings = append(warnings, fmt.Sprintf("source charsets found: %s", strings.Join(sortedKeys(charsets), ", ")))
	}
	if len(collations) > 0 {
		warnings = append(warnings, fmt.Sprintf("source collations found: %s", strings.Join(sortedKeys(collations), ", ")))
	}

	for _, coll := range sortedKeys(ciCounts) {
		warnings = append(warnings, fmt.Sprintf(
			"%d column(s) use %s (case-insensitive); PostgreSQL text comparisons are case-sensitive by default",
			ciCounts[coll], coll))
	}

	for _, coll := range sortedKeys(ciUniqueRefs) {
		refs := ciUniqueRefs[coll]
		warnings = append(warnings, fmt.Sprintf(
			"unique index/PK on %s column(s) — uniqueness semantics may differ: %s",
			coll, strings.Join(refs, ", ")))
	}

	return warnings
}

// sortedKeys returns the keys of a map in sorted order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
