package main

import "fmt"

// indexUnsupportedReason reports why an index cannot be ported as a plain
// column list. SPATIAL and FULLTEXT are ported (GIST/GIN), so only prefix
// and expression key-parts remain.
func indexUnsupportedReason(idx Index) (string, bool) {
	if idx.HasExpression {
		return "expression index key-parts are not currently supported", true
	}
	if idx.HasPrefix {
		return "prefix indexes (SUB_PART) are ported without the prefix length", true
	}
	if len(idx.Columns) == 0 {
		return "index has no plain column key-parts", true
	}
	return "", false
}

func collectIndexCompatibilityWarnings(schema *Schema) []string {
	var warnings []string
	for _, t := range schema.Tables {
		for _, idx := range t.Indexes {
			if reason, unsupported := indexUnsupportedReason(idx); unsupported {
				warnings = append(warnings,
					fmt.Sprintf("%s.%s (%s): %s", t.Name, idx.KeyName, idx.Method, reason),
				)
			}
		}
	}
	return warnings
}
