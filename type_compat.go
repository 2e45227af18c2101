package main

import "fmt"

// collectUnsupportedTypeErrors pre-flights the whole schema through the
// type mapper so an unknown base type surfaces before any DDL is issued
// rather than mid-run.
func collectUnsupportedTypeErrors(schema *Schema) []string {
	if schema == nil {
		return nil
	}

	var errs []string
	for _, t := range schema.Tables {
		for _, col := range t.Columns {
			if _, err := pgColumnType(col); err != nil {
				errs = append(errs, fmt.Sprintf("%s.%s (%s): %v", t.Name, col.Field, col.RawType, err))
			}
		}
	}
	return errs
}
