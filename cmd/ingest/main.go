// Command ingest loads brokerage trade-execution CSV exports, reconstructs
// multi-leg option strategies from the fills, and upserts the result into
// storage. Re-running over the same exports is idempotent.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"stratdeck/internal/ingest"
	"stratdeck/internal/storage"
	"stratdeck/internal/storage/memory"
	"stratdeck/internal/storage/migrations"
	pgstore "stratdeck/internal/storage/postgres"
	"stratdeck/internal/tastycsv"
)

func main() {
	// .env is optional; flags and real env vars win.
	_ = godotenv.Load()

	source := flag.String("source", envOr("STRATDECK_TRADES_DIR", "trades"), "Directory containing CSV export files")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("STRATDECK_DB_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	reset := flag.Bool("reset", false, "Clear all previously ingested data before writing")
	dryRun := flag.Bool("dry-run", false, "Reconstruct and report without writing to storage")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling run...", sig)
		cancel()
	}()

	if err := run(ctx, logger, *source, *postgresDSN, *useMemory, *reset, *dryRun, *verbose); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Println("Run cancelled")
			os.Exit(1)
		}
		logger.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, logger *log.Logger, source, postgresDSN string, useMemory, reset, dryRun, verbose bool) error {
	runID := uuid.NewString()
	logger.Printf("Starting ingestion run %s from %s", runID, source)

	files, err := tastycsv.DiscoverFiles(source)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logger.Printf("No CSV files found in %s, nothing to do", source)
		return nil
	}
	if verbose {
		for _, f := range files {
			logger.Printf("Found %s", f)
		}
	}

	// Require --postgres-dsn unless --use-memory is explicitly set
	if !useMemory && !dryRun && postgresDSN == "" {
		return fmt.Errorf("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	var strategyStore storage.StrategyStore = memory.NewStrategyStore()
	var legStore storage.LegStore = memory.NewLegStore()
	var fillStore storage.FillStore = memory.NewFillStore()

	if !useMemory && !dryRun {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		strategyStore = pgstore.NewStrategyStore(pool)
		legStore = pgstore.NewLegStore(pool)
		fillStore = pgstore.NewFillStore(pool)
	}

	runner := ingest.NewRunner(ingest.Options{
		Strategies: strategyStore,
		Legs:       legStore,
		Fills:      fillStore,
		Logger:     logger,
		DryRun:     dryRun,
		Reset:      reset,
	})

	result, err := runner.Run(ctx, files)
	if err != nil {
		return err
	}

	logger.Printf("Run %s complete:", runID)
	logger.Printf("  Files scanned:  %d", result.FilesScanned)
	logger.Printf("  Rows read:      %d", result.RowsRead)
	logger.Printf("  Rows skipped:   %d", result.RowsSkipped)
	logger.Printf("  Trades loaded:  %d", result.TradesLoaded)
	logger.Printf("  Strategies:     %d", result.Strategies)
	logger.Printf("  Legs:           %d", result.Legs)
	logger.Printf("  Fills:          %d", result.Fills)
	if result.OrphanCloses > 0 {
		logger.Printf("  Orphan closes:  %d", result.OrphanCloses)
	}
	if result.TrimmedCloses > 0 {
		logger.Printf("  Trimmed closes: %d", result.TrimmedCloses)
	}
	if dryRun {
		logger.Println("Dry run: nothing was written")
	}

	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
