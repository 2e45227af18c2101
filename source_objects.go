package main

import (
	"database/sql"
	"fmt"
	"strings"
)

// SourceObjects holds non-table source objects that are not migrated
// (views are; routines and triggers are not).
type SourceObjects struct {
	Routines []string
	Triggers []string
}

// discoverSourceObjects lists routines and triggers so the operator knows
// what needs manual porting.
func discoverSourceObjects(db *sql.DB, dbName string) (*SourceObjects, error) {
	objs := &SourceObjects{}

	rows, err := db.Query(`
		SELECT ROUTINE_TYPE, ROUTINE_NAME
		FROM INFORMATION_SCHEMA.ROUTINES
		WHERE ROUTINE_SCHEMA = ?
		ORDER BY ROUTINE_TYPE, ROUTINE_NAME
	`, dbName)
	if err != nil {
		return nil, fmt.Errorf("introspect routines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var routineType, routineName string
		if err := rows.Scan(&routineType, &routineName); err != nil {
			return nil, fmt.Errorf("scan routines: %w", err)
		}
		objs.Routines = append(objs.Routines, fmt.Sprintf("%s %s", strings.ToUpper(routineType), routineName))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate routines: %w", err)
	}

	if err := collectStringRows(db, `
		SELECT TRIGGER_NAME
		FROM INFORMATION_SCHEMA.TRIGGERS
		WHERE TRIGGER_SCHEMA = ?
		ORDER BY TRIGGER_NAME
	`, dbName, &objs.Triggers); err != nil {
		return nil, fmt.Errorf("introspect triggers: %w", err)
	}

	return objs, nil
}

func sourceObjectWarnings(objs *SourceObjects) []string {
	if objs == nil || (len(objs.Routines) == 0 && len(objs.Triggers) == 0) {
		return nil
	}

	warnings := []string{
		fmt.Sprintf(
			"source contains objects not migrated automatically (%d routines, %d triggers)",
			len(objs.Routines), len(objs.Triggers),
		),
	}
	for _, r := range objs.Routines {
		warnings = append(warnings, fmt.Sprintf("routine: %s", r))
	}
	for _, t := range objs.Triggers {
		warnings = append(warnings, fmt.Sprintf("trigger: %s", t))
	}
	return warnings
}
