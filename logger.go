package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Logger owns the run's four sinks: all.log (info and up, mirrored to
// stdout), errors-only.log, views.log, and report-only.log. It is passed by
// value into components; there is no process-wide logger state.
type Logger struct {
	common *logrus.Logger
	errs   *logrus.Logger
	views  *logrus.Logger

	dir        string
	allFile    *os.File
	errFile    *os.File
	viewsFile  *os.File
	reportFile *os.File
}

// newLogger creates the log directory and opens all sinks.
func newLogger(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	open := func(name string) (*os.File, error) {
		return os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	}

	l := &Logger{dir: dir}
	var err error
	if l.allFile, err = open("all.log"); err != nil {
		return nil, err
	}
	if l.errFile, err = open("errors-only.log"); err != nil {
		return nil, err
	}
	if l.viewsFile, err = open("views.log"); err != nil {
		return nil, err
	}
	if l.reportFile, err = open("report-only.log"); err != nil {
		return nil, err
	}

	fileFormat := &logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000000",
	}

	l.common = logrus.New()
	l.common.SetOutput(io.MultiWriter(os.Stdout, l.allFile))
	l.common.SetFormatter(fileFormat)

	l.errs = logrus.New()
	l.errs.SetOutput(io.MultiWriter(os.Stderr, l.allFile, l.errFile))
	l.errs.SetFormatter(fileFormat)

	l.views = logrus.New()
	l.views.SetOutput(io.MultiWriter(l.viewsFile, l.allFile))
	l.views.SetFormatter(fileFormat)

	return l, nil
}

func (l Logger) Infof(format string, args ...any)  { l.common.Infof(format, args...) }
func (l Logger) Warnf(format string, args ...any)  { l.common.Warnf(format, args...) }
func (l Logger) Errorf(format string, args ...any) { l.errs.Errorf(format, args...) }
func (l Logger) Viewf(format string, args ...any)  { l.views.Warnf(format, args...) }

// Report writes the summary table verbatim to report-only.log and stdout.
func (l Logger) Report(text string) {
	fmt.Fprintln(l.reportFile, text)
	fmt.Println(text)
}

// RejectedRow writes a rejected row verbatim to the error sink, preceded by
// a marker line naming the table, so the raw data can be replayed by hand.
func (l Logger) RejectedRow(table string, raw string) {
	marker := fmt.Sprintf("-- rejected row in %s:", table)
	for _, w := range []io.Writer{l.errFile, l.allFile} {
		fmt.Fprintln(w, marker)
		fmt.Fprintln(w, raw)
	}
}

// SaveViewDDL persists the source DDL of a view that failed to install
// under not_created_views/<name>.sql.
func (l Logger) SaveViewDDL(name, ddl string) error {
	dir := filepath.Join(l.dir, "not_created_views")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name+".sql"), []byte(ddl+"\n"), 0o644)
}

// Close flushes and closes every sink file.
func (l *Logger) Close() {
	for _, f := range []*os.File{l.allFile, l.errFile, l.viewsFile, l.reportFile} {
		if f != nil {
			f.Close()
		}
	}
}
