package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pgmover <config.json|config.xml>",
	Short: "MySQL to PostgreSQL structure-and-data migration tool",
	Args:  cobra.ExactArgs(1),
	RunE:  runMigration,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var phaseBanner = color.New(color.FgCyan, color.Bold)

func banner(format string, args ...any) {
	phaseBanner.Printf("==> "+format+"\n", args...)
}

func runMigration(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args[0])
	if err != nil {
		return err
	}

	validator, err := newEncodingValidator(cfg.Encoding)
	if err != nil {
		return err
	}

	mysqlDSN, sourceDB, err := buildMySQLDSN(cfg.Source.Endpoint)
	if err != nil {
		return newError(errConfig, "", err)
	}
	pgDSN, targetDB, err := buildPostgresDSN(cfg.Target.Endpoint)
	if err != nil {
		return newError(errConfig, "", err)
	}

	log, err := newLogger(cfg.LogDirPath)
	if err != nil {
		return err
	}
	defer log.Close()

	if err := os.MkdirAll(cfg.TempDirPath, 0o755); err != nil {
		return newError(errConfig, "", fmt.Errorf("create temp dir: %w", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	log.Infof("pgmover — MySQL → PostgreSQL migration")
	log.Infof("source db=%s target db=%s encoding=%s chunk=%dMB workers=%d data_only=%t",
		sourceDB, targetDB, cfg.Encoding, cfg.DataChunkSize, cfg.Workers, cfg.DataOnly)

	// 1. Connect to both sides
	banner("connecting")
	mysqlDB, err := openMySQL(mysqlDSN)
	if err != nil {
		return err
	}
	defer mysqlDB.Close()
	mysqlDB.SetMaxOpenConns(1)
	if err := mysqlDB.PingContext(ctx); err != nil {
		return newError(errConnect, "", fmt.Errorf("ping mysql: %w", err))
	}

	pgPool, err := pgxpool.New(ctx, pgDSN)
	if err != nil {
		return newError(errConnect, "", fmt.Errorf("connect postgres: %w", err))
	}
	defer pgPool.Close()
	if err := pgPool.Ping(ctx); err != nil {
		return newError(errConnect, "", fmt.Errorf("ping postgres: %w", err))
	}

	// 2. Create destination schema
	banner("preparing destination schema")
	targetSchema, err := resolveTargetSchema(ctx, pgPool, cfg.Schema, sourceDB)
	if err != nil {
		return err
	}
	log.Infof("destination schema: %s", targetSchema)
	plan := Plan{TargetSchema: targetSchema, ChunkTargetMB: cfg.DataChunkSize}

	// 3. Discover source structure
	banner("discovering source structure")
	schema, err := discoverSchema(mysqlDB, sourceDB, cfg.Exclude)
	if err != nil {
		return err
	}
	log.Infof("found %d tables, %d views", len(schema.Tables), len(schema.Views))
	for i := range schema.Tables {
		t := &schema.Tables[i]
		log.Infof("  %s (%d cols, %d indexes, %d fks, %d rows, ~%d MB)",
			t.Name, len(t.Columns), len(t.Indexes), len(t.ForeignKeys), t.RowCount, t.SizeMB)
	}

	if errs := collectUnsupportedTypeErrors(schema); len(errs) > 0 {
		for _, e := range errs {
			log.Errorf("unsupported type: %s", e)
		}
		return newError(errUnsupportedType, "", fmt.Errorf("%d column(s) have unsupported types", len(errs)))
	}

	for _, w := range collectCollationWarnings(schema) {
		log.Warnf("%s", w)
	}
	for _, w := range collectIndexCompatibilityWarnings(schema) {
		log.Warnf("%s", w)
	}
	for _, w := range collectGeneratedColumnWarnings(schema) {
		log.Warnf("%s", w)
	}
	if objs, err := discoverSourceObjects(mysqlDB, sourceDB); err == nil {
		for _, w := range sourceObjectWarnings(objs) {
			log.Warnf("%s", w)
		}
	} else {
		log.Warnf("source object discovery: %v", err)
	}

	// the introspection connection is done; workers open their own
	mysqlDB.Close()

	if err := runHookFiles(ctx, pgPool, cfg, targetSchema, cfg.Hooks.BeforeData, "before_data", *log); err != nil {
		return err
	}

	// 4.+5. Per-table pipeline: CREATE TABLE → COPY → deferred DDL
	banner("migrating %d tables with %d workers", len(schema.Tables), cfg.Workers)
	summaries, err := migrateTables(ctx, mysqlDSN, pgDSN, schema, plan, cfg, validator, *log)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		log.Warnf("migration interrupted; partial state left in place")
		return ctx.Err()
	}

	if err := runHookFiles(ctx, pgPool, cfg, targetSchema, cfg.Hooks.AfterData, "after_data", *log); err != nil {
		return err
	}

	viewsFailed := 0
	if !cfg.DataOnly {
		if err := runHookFiles(ctx, pgPool, cfg, targetSchema, cfg.Hooks.BeforeFk, "before_fk", *log); err != nil {
			return err
		}

		// 6. Foreign keys — global barrier: every table is loaded by now
		banner("installing foreign keys")
		if failed := installForeignKeys(ctx, pgPool, schema, targetSchema, *log); failed > 0 {
			log.Warnf("%d foreign key(s) failed", failed)
		}

		// 7. Views
		banner("creating views")
		viewsFailed = installViews(ctx, pgPool, schema, targetSchema, sourceDB, *log)
	}

	if err := runHookFiles(ctx, pgPool, cfg, targetSchema, cfg.Hooks.AfterAll, "after_all", *log); err != nil {
		return err
	}

	// 8. Summary report
	banner("summary")
	log.Report(formatSummaryReport(summaries))

	var totalFailed int64
	for _, s := range summaries {
		totalFailed += s.Failed
	}
	elapsed := time.Since(start).Round(time.Millisecond).String()
	if err := printRunSummary(cfg, plan, len(schema.Tables), len(schema.Views), viewsFailed, totalFailed, elapsed); err != nil {
		log.Warnf("console summary: %v", err)
	}
	log.Infof("migration completed in %s", elapsed)

	// the temp dir is removed only on clean exit
	if err := os.RemoveAll(cfg.TempDirPath); err != nil {
		log.Warnf("remove temp dir: %v", err)
	}
	return nil
}
