// Package ingest orchestrates one ingestion run: load and normalize the CSV
// exports, reconstruct strategies from the trade stream, and upsert the
// result into storage.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"stratdeck/internal/domain"
	"stratdeck/internal/reconstruct"
	"stratdeck/internal/storage"
	"stratdeck/internal/tastycsv"
)

// ErrNoTrades is returned when the input files yield zero ingestible trades.
// An empty run is treated as operator error rather than an empty success, so
// a typo'd directory never silently ingests nothing.
var ErrNoTrades = errors.New("no ingestible trades found")

// Options configures a Runner.
type Options struct {
	Strategies storage.StrategyStore
	Legs       storage.LegStore
	Fills      storage.FillStore

	Logger *log.Logger

	// DryRun reconstructs and reports but writes nothing.
	DryRun bool

	// Reset clears all three tables before writing, children first.
	Reset bool
}

// RunResult summarizes one completed run.
type RunResult struct {
	FilesScanned  int
	RowsRead      int
	RowsSkipped   int
	TradesLoaded  int
	Strategies    int
	Legs          int
	Fills         int
	OrphanCloses  int
	TrimmedCloses int
}

// Runner executes ingestion runs. Safe to reuse; each run builds fresh
// reconstruction state.
type Runner struct {
	opts   Options
	logger *log.Logger
}

// NewRunner creates a Runner. A nil logger falls back to the default. The
// stores may be nil only when every run is a dry run.
func NewRunner(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{opts: opts, logger: logger}
}

// Run ingests the given CSV files end to end.
func (r *Runner) Run(ctx context.Context, files []string) (*RunResult, error) {
	loader := tastycsv.NewLoader(r.logger)
	trades, loadStats, err := loader.Load(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("load trade files: %w", err)
	}
	if len(trades) == 0 {
		return nil, fmt.Errorf("%w in %d file(s)", ErrNoTrades, len(files))
	}

	result := reconstruct.NewBuilder(r.logger).Build(trades)

	runResult := &RunResult{
		FilesScanned:  loadStats.FilesScanned,
		RowsRead:      loadStats.RowsRead,
		RowsSkipped:   loadStats.RowsSkipped,
		TradesLoaded:  loadStats.TradesLoaded,
		Strategies:    result.Stats.Strategies,
		Legs:          result.Stats.Legs,
		Fills:         result.Stats.Fills,
		OrphanCloses:  result.Stats.OrphanCloses,
		TrimmedCloses: result.Stats.TrimmedCloses,
	}

	if r.opts.DryRun {
		r.logger.Printf("Dry run: skipping persistence of %d strategies, %d legs, %d fills",
			runResult.Strategies, runResult.Legs, runResult.Fills)
		return runResult, nil
	}

	if err := r.persist(ctx, result); err != nil {
		return nil, err
	}

	return runResult, nil
}

// persist writes the reconstruction result parent-first so foreign keys are
// always satisfied: strategies, then legs, then fills.
func (r *Runner) persist(ctx context.Context, result *reconstruct.Result) error {
	if r.opts.Strategies == nil || r.opts.Legs == nil || r.opts.Fills == nil {
		return errors.New("stores not configured")
	}

	if r.opts.Reset {
		r.logger.Printf("Reset: clearing fills, legs and strategies")
		if err := r.opts.Fills.DeleteAll(ctx); err != nil {
			return fmt.Errorf("reset fills: %w", err)
		}
		if err := r.opts.Legs.DeleteAll(ctx); err != nil {
			return fmt.Errorf("reset legs: %w", err)
		}
		if err := r.opts.Strategies.DeleteAll(ctx); err != nil {
			return fmt.Errorf("reset strategies: %w", err)
		}
	}

	strategies, legs := flatten(result.Strategies)

	if err := r.opts.Strategies.UpsertBulk(ctx, strategies); err != nil {
		return fmt.Errorf("persist strategies: %w", err)
	}
	if err := r.opts.Legs.UpsertBulk(ctx, legs); err != nil {
		return fmt.Errorf("persist legs: %w", err)
	}
	if err := r.opts.Fills.UpsertBulk(ctx, result.Fills); err != nil {
		return fmt.Errorf("persist fills: %w", err)
	}

	return nil
}

// flatten orders strategies and legs by id for a deterministic write order.
func flatten(strategies map[string]*domain.StrategyRecord) ([]*domain.StrategyRecord, []*domain.LegRecord) {
	strategyList := make([]*domain.StrategyRecord, 0, len(strategies))
	var legList []*domain.LegRecord

	for _, s := range strategies {
		strategyList = append(strategyList, s)
		for _, leg := range s.Legs {
			legList = append(legList, leg)
		}
	}

	sort.Slice(strategyList, func(i, j int) bool { return strategyList[i].ID < strategyList[j].ID })
	sort.Slice(legList, func(i, j int) bool { return legList[i].ID < legList[j].ID })

	return strategyList, legList
}
