package main

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var viewAsRe = regexp.MustCompile(`(?is)\bVIEW\b.*?\bAS\b\s*`)

// rewriteViewDDL ports a MySQL CREATE VIEW statement to PostgreSQL dialect:
// the ALGORITHM/DEFINER/SQL SECURITY prefix is dropped, backtick quoting
// becomes double quotes, and references to known source tables and views
// are qualified with the target schema. Bodies using MySQL-only syntax are
// left for the destination to reject; the caller handles that non-fatally.
func rewriteViewDDL(createSQL, viewName, pgSchema, sourceDB string, knownNames []string) (string, error) {
	loc := viewAsRe.FindStringIndex(createSQL)
	if loc == nil {
		return "", fmt.Errorf("cannot find VIEW ... AS in DDL of %s", viewName)
	}
	body := strings.TrimSpace(createSQL[loc[1]:])
	if body == "" {
		return "", fmt.Errorf("empty view body for %s", viewName)
	}

	body = backticksToDoubleQuotes(body)

	// Replace via placeholders so an already-qualified reference is never
	// qualified a second time.
	sorted := append([]string(nil), knownNames...)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	placeholders := make(map[string]string, len(sorted))
	for i, name := range sorted {
		ph := fmt.Sprintf("\x00ref%d\x00", i)
		placeholders[ph] = pgQualified(pgSchema, name)
		body = strings.ReplaceAll(body, pgQuote(sourceDB)+"."+pgQuote(name), ph)
		body = strings.ReplaceAll(body, pgQuote(name), ph)
	}
	for ph, qualified := range placeholders {
		body = strings.ReplaceAll(body, ph, qualified)
	}

	return fmt.Sprintf("CREATE VIEW %s AS %s", pgQualified(pgSchema, viewName), body), nil
}

// backticksToDoubleQuotes converts MySQL identifier quoting to PostgreSQL.
// A doubled backtick inside an identifier is a literal backtick.
func backticksToDoubleQuotes(s string) string {
	var b strings.Builder
	inIdent := false
	for i := 0; i < len(s); i++ {
		if s[i] != '`' {
			b.WriteByte(s[i])
			continue
		}
		if inIdent && i+1 < len(s) && s[i+1] == '`' {
			b.WriteByte('`')
			i++
			continue
		}
		b.WriteByte('"')
		inIdent = !inIdent
	}
	return b.String()
}

// installViews rewrites and installs every discovered view. A view that
// fails to rewrite or install never aborts the run: its source DDL is
// persisted under not_created_views/ and the failure goes to the view sink.
// Returns the number of views that could not be created.
func installViews(ctx context.Context, exec schemaExecutor, schema *Schema, pgSchema, sourceDB string, log Logger) int {
	if len(schema.Views) == 0 {
		return 0
	}

	known := make([]string, 0, len(schema.Tables)+len(schema.Views))
	for _, t := range schema.Tables {
		known = append(known, t.Name)
	}
	for _, v := range schema.Views {
		known = append(known, v.Name)
	}

	failed := 0
	for _, v := range schema.Views {
		ddl, err := rewriteViewDDL(v.CreateSQL, v.Name, pgSchema, sourceDB, known)
		if err == nil {
			_, err = exec.Exec(ctx, ddl)
		}
		if err != nil {
			failed++
			log.Viewf("%v", newError(errView, ddl, fmt.Errorf("create view %s: %w", v.Name, err)))
			if saveErr := log.SaveViewDDL(v.Name, v.CreateSQL); saveErr != nil {
				log.Errorf("save DDL of view %s: %v", v.Name, saveErr)
			}
			continue
		}
		log.Infof("view %s.%s created", pgSchema, v.Name)
	}
	return failed
}
