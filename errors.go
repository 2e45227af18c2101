package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// errorKind classifies a migration failure per the continuation policy:
// fatal kinds abort the run, the rest are logged and the run continues.
type errorKind int

const (
	errConfig errorKind = iota
	errConnect
	errSchema
	errDiscovery
	errTableCreate
	errDataRow
	errDeferredDDL
	errForeignKey
	errView
	errUnsupportedType
)

var errorKindNames = map[errorKind]string{
	errConfig:          "ConfigError",
	errConnect:         "ConnectError",
	errSchema:          "SchemaError",
	errDiscovery:       "DiscoveryError",
	errTableCreate:     "TableCreateError",
	errDataRow:         "DataRowError",
	errDeferredDDL:     "DeferredDDLError",
	errForeignKey:      "ForeignKeyError",
	errView:            "ViewError",
	errUnsupportedType: "UnsupportedType",
}

func (k errorKind) String() string { return errorKindNames[k] }

// Fatal reports whether the kind aborts the whole run.
func (k errorKind) Fatal() bool {
	switch k {
	case errConfig, errConnect, errSchema, errDiscovery, errTableCreate, errUnsupportedType:
		return true
	}
	return false
}

// migrationError carries the offending SQL (if any), the source location that
// raised it, the driver error code when available, and the underlying error.
type migrationError struct {
	Kind errorKind
	SQL  string
	File string
	Line int
	Code string
	Err  error
}

func (e *migrationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v", e.Kind, e.Err)
	if e.Code != "" {
		fmt.Fprintf(&b, " (code %s)", e.Code)
	}
	if e.File != "" {
		fmt.Fprintf(&b, " [%s:%d]", e.File, e.Line)
	}
	if e.SQL != "" {
		fmt.Fprintf(&b, "\nSQL: %s", e.SQL)
	}
	return b.String()
}

func (e *migrationError) Unwrap() error { return e.Err }

// newError wraps err with its kind, the caller's file:line, and the SQL that
// failed. sqlText may be empty for non-statement failures.
func newError(kind errorKind, sqlText string, err error) *migrationError {
	_, file, line, _ := runtime.Caller(1)
	return &migrationError{
		Kind: kind,
		SQL:  sqlText,
		File: filepath.Base(file),
		Line: line,
		Code: driverErrorCode(err),
		Err:  err,
	}
}

// driverErrorCode extracts the SQLSTATE / vendor code from a driver error.
func driverErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return fmt.Sprintf("%d", myErr.Number)
	}
	return ""
}

// errorIsFatal reports whether err (anywhere in its chain) carries a fatal kind.
func errorIsFatal(err error) bool {
	var me *migrationError
	if errors.As(err, &me) {
		return me.Kind.Fatal()
	}
	return false
}
