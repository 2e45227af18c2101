package main

import (
	"fmt"
	"strings"
)

// MappedType is the result of mapping a MySQL column type declaration.
// PgType is ready to splice into CREATE TABLE: uppercased, wrapped in
// single spaces.
type MappedType struct {
	PgType          string
	HasLengthSuffix bool
}

// typeEntry describes one row of the MySQL → PostgreSQL type dictionary.
// promoted is the type used when the column carries unsigned or zerofill;
// empty means promotion does not change the type. fixedLen means the
// PostgreSQL type must not carry the original MySQL length suffix.
type typeEntry struct {
	pgType   string
	promoted string
	fixedLen bool
}

// mysqlTypeDict is keyed by the lowercase MySQL base type with any (...)
// suffix stripped. MySQL integer display widths are meaningless in
// PostgreSQL, so integer entries drop their length.
var mysqlTypeDict = map[string]typeEntry{
	"tinyint":   {pgType: "smallint", promoted: "int", fixedLen: true},
	"smallint":  {pgType: "smallint", promoted: "int", fixedLen: true},
	"year":      {pgType: "smallint", promoted: "int", fixedLen: true},
	"mediumint": {pgType: "int", promoted: "bigint", fixedLen: true},
	"int":       {pgType: "int", promoted: "bigint", fixedLen: true},
	"integer":   {pgType: "int", promoted: "bigint", fixedLen: true},
	"bigint":    {pgType: "bigint", promoted: "bigint", fixedLen: true},

	"float":  {pgType: "real", promoted: "double precision", fixedLen: true},
	"double": {pgType: "double precision", fixedLen: true},

	"decimal": {pgType: "decimal"},
	"numeric": {pgType: "numeric"},

	"char":    {pgType: "character"},
	"varchar": {pgType: "character varying"},

	"enum": {pgType: "character varying(255)", fixedLen: true},
	"set":  {pgType: "character varying(255)", fixedLen: true},

	"date":      {pgType: "date", fixedLen: true},
	"time":      {pgType: "time", fixedLen: true},
	"datetime":  {pgType: "timestamp", fixedLen: true},
	"timestamp": {pgType: "timestamp", fixedLen: true},

	"tinytext":   {pgType: "text", fixedLen: true},
	"mediumtext": {pgType: "text", fixedLen: true},
	"longtext":   {pgType: "text", fixedLen: true},
	"text":       {pgType: "text", fixedLen: true},

	"binary":     {pgType: "bytea", fixedLen: true},
	"varbinary":  {pgType: "bytea", fixedLen: true},
	"tinyblob":   {pgType: "bytea", fixedLen: true},
	"blob":       {pgType: "bytea", fixedLen: true},
	"mediumblob": {pgType: "bytea", fixedLen: true},
	"longblob":   {pgType: "bytea", fixedLen: true},

	"bit": {pgType: "bit varying", promoted: "bit varying", fixedLen: true},

	"json": {pgType: "json", fixedLen: true},

	"geometry":   {pgType: "geometry", fixedLen: true},
	"point":      {pgType: "point", fixedLen: true},
	"polygon":    {pgType: "polygon", fixedLen: true},
	"linestring": {pgType: "line", fixedLen: true},
}

// mapType translates a full MySQL column type declaration such as
// "int(10) unsigned", "decimal(10,2)" or "enum('a','b')" into the
// PostgreSQL declaration to splice into CREATE TABLE. unsigned/zerofill
// promote integers one width up so the value range still fits.
func mapType(rawType string) (MappedType, error) {
	tokens := strings.Fields(strings.TrimSpace(rawType))
	if len(tokens) == 0 {
		return MappedType{}, newError(errUnsupportedType, "", fmt.Errorf("empty column type"))
	}

	baseDecl := strings.ToLower(tokens[0])
	promote := false
	for _, tok := range tokens[1:] {
		switch strings.ToLower(tok) {
		case "unsigned", "zerofill":
			promote = true
		}
	}

	bare := baseDecl
	suffix := ""
	if open := strings.IndexByte(baseDecl, '('); open >= 0 {
		bare = baseDecl[:open]
		suffix = baseDecl[open:]
	}

	// decimal(19,2) maps to money exactly; promotion falls back to numeric.
	if bare == "decimal" && suffix == "(19,2)" {
		if promote {
			return finishMappedType("numeric", false), nil
		}
		return finishMappedType("money", false), nil
	}

	entry, ok := mysqlTypeDict[bare]
	if !ok {
		return MappedType{}, newError(errUnsupportedType, "", fmt.Errorf("unknown MySQL base type %q (column type %q)", bare, rawType))
	}

	pgType := entry.pgType
	if promote && entry.promoted != "" {
		pgType = entry.promoted
	}

	if entry.fixedLen {
		return finishMappedType(pgType, strings.Contains(pgType, "(")), nil
	}

	// PostgreSQL rejects character(0) / character varying(0).
	if suffix == "(0)" {
		suffix = "(1)"
	}
	return finishMappedType(pgType+suffix, suffix != ""), nil
}

func finishMappedType(pgType string, hasLen bool) MappedType {
	return MappedType{
		PgType:          " " + strings.ToUpper(pgType) + " ",
		HasLengthSuffix: hasLen,
	}
}

// isMySQLBase reports whether the column's bare base type (lowercased,
// length suffix stripped) matches any of the given names.
func isMySQLBase(rawType string, names ...string) bool {
	base := mysqlBareType(rawType)
	for _, n := range names {
		if base == n {
			return true
		}
	}
	return false
}

// mysqlBareType returns the lowercase base type with modifiers and the
// (...) suffix stripped: "INT(10) unsigned" → "int".
func mysqlBareType(rawType string) string {
	decl := strings.ToLower(strings.TrimSpace(rawType))
	if i := strings.IndexAny(decl, " \t"); i >= 0 {
		decl = decl[:i]
	}
	if i := strings.IndexByte(decl, '('); i >= 0 {
		decl = decl[:i]
	}
	return decl
}

func strContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
