package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
)

// pgBulkCopier adapts a dedicated pgx connection to the bulkCopier surface.
type pgBulkCopier struct {
	conn *pgx.Conn
}

func (c pgBulkCopier) CopyFrom(ctx context.Context, r io.Reader, sql string) (int64, error) {
	tag, err := c.conn.PgConn().CopyFrom(ctx, r, sql)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// tableWorker owns one source connection and two destination connections:
// the query/DDL connection and the bulk connection running with
// synchronous_commit off so WAL flushes do not pace the copy.
type tableWorker struct {
	src  *sql.DB
	ddl  *pgx.Conn
	bulk *pgx.Conn
}

func newTableWorker(ctx context.Context, mysqlDSN, pgDSN string) (*tableWorker, error) {
	src, err := openMySQL(mysqlDSN)
	if err != nil {
		return nil, err
	}
	src.SetMaxOpenConns(1)

	ddl, err := pgx.Connect(ctx, pgDSN)
	if err != nil {
		src.Close()
		return nil, newError(errConnect, "", fmt.Errorf("connect postgres: %w", err))
	}

	bulk, err := pgx.Connect(ctx, pgDSN)
	if err != nil {
		src.Close()
		ddl.Close(ctx)
		return nil, newError(errConnect, "", fmt.Errorf("connect postgres (bulk): %w", err))
	}
	if _, err := bulk.Exec(ctx, "SET synchronous_commit = off"); err != nil {
		src.Close()
		ddl.Close(ctx)
		bulk.Close(ctx)
		return nil, newError(errConnect, "SET synchronous_commit = off", err)
	}

	return &tableWorker{src: src, ddl: ddl, bulk: bulk}, nil
}

func (w *tableWorker) Close(ctx context.Context) {
	w.src.Close()
	w.ddl.Close(ctx)
	w.bulk.Close(ctx)
}

// migrateTables runs the per-table pipeline (CREATE TABLE → data COPY →
// deferred DDL) across the configured worker count. A worker holds its
// table until all three steps are done. CREATE TABLE failures abort the
// whole run; everything downstream of a created table is non-fatal.
// On cancellation no new tables are scheduled; running chunks finish.
func migrateTables(ctx context.Context, mysqlDSN, pgDSN string, schema *Schema, plan Plan, cfg *Config, validator *encodingValidator, log Logger) ([]SummaryRow, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type job struct {
		idx   int
		table *Table
	}
	jobs := make(chan job)
	go func() {
		defer close(jobs)
		for i := range schema.Tables {
			select {
			case jobs <- job{idx: i, table: &schema.Tables[i]}:
			case <-ctx.Done():
				return
			}
		}
	}()

	summaries := make([]SummaryRow, len(schema.Tables))
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		fatalErr error
		once     sync.Once
	)
	abort := func(err error) {
		once.Do(func() {
			fatalErr = err
			cancel()
		})
	}

	for n := 0; n < cfg.Workers; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			w, err := newTableWorker(ctx, mysqlDSN, pgDSN)
			if err != nil {
				abort(err)
				return
			}
			defer w.Close(context.Background())

			for j := range jobs {
				if ctx.Err() != nil {
					return
				}
				t := j.table

				if err := createTable(ctx, w.ddl, t, plan.TargetSchema, log); err != nil {
					log.Errorf("%v", err)
					abort(err)
					return
				}

				start := time.Now()
				copied, err := transferTable(ctx, w.src, pgBulkCopier{conn: w.bulk}, t, plan.TargetSchema, plan, validator, log)
				if err != nil {
					log.Errorf("data load of %s: %v", t.Name, err)
				}

				if !cfg.DataOnly {
					if failed := applyDeferredDDL(ctx, w.ddl, t, plan.TargetSchema, log); failed > 0 {
						log.Warnf("%d deferred DDL statement(s) failed for %s", failed, t.Name)
					}
				}

				row := SummaryRow{
					Table:   plan.TargetSchema + "." + t.Name,
					Rows:    t.RowCount,
					Failed:  t.RowCount - copied,
					Elapsed: time.Since(start),
				}
				mu.Lock()
				summaries[j.idx] = row
				mu.Unlock()

				log.Infof("table %s done: %d rows, %d failed, %s",
					t.Name, row.Rows, row.Failed, row.Elapsed.Round(time.Millisecond))
			}
		}()
	}

	wg.Wait()
	return summaries, fatalErr
}
