package tastycsv

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"stratdeck/internal/domain"
)

// Loader reads any number of export files and produces one globally
// time-sorted trade sequence. Files load concurrently; the merge order is
// fixed by path so results do not depend on scheduling.
type Loader struct {
	logger *log.Logger
}

// NewLoader creates a Loader. A nil logger falls back to the default.
func NewLoader(logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{logger: logger}
}

// LoadStats counts what happened during a load, reported to operators even
// when individual rows were skipped.
type LoadStats struct {
	FilesScanned int
	RowsRead     int
	RowsSkipped  int
	TradesLoaded int
}

// DiscoverFiles lists *.csv files in dir, sorted by name. A missing
// directory is a structural error; an empty one returns no paths.
func DiscoverFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("source directory not found: %s", dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source is not a directory: %s", dir)
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Load normalizes every row of every file and returns the surviving trades
// sorted ascending by timestamp. That global cross-file ordering is the
// correctness invariant the reconstructor depends on.
func (l *Loader) Load(ctx context.Context, paths []string) ([]*domain.ParsedTrade, LoadStats, error) {
	type fileResult struct {
		trades  []*domain.ParsedTrade
		rows    int
		skipped int
	}

	results := make([]fileResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			l.logger.Printf("Loading %s", filepath.Base(path))
			rows, err := ReadFile(path)
			if err != nil {
				return err
			}

			res := fileResult{rows: len(rows)}
			for _, row := range rows {
				trade, err := NormalizeRow(row)
				if err != nil {
					res.skipped++
					if !errors.Is(err, ErrSkipRow) {
						l.logger.Printf("Skipping row %d in %s: %v", row.Num, filepath.Base(path), err)
					}
					continue
				}
				res.trades = append(res.trades, trade)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, LoadStats{}, err
	}

	stats := LoadStats{FilesScanned: len(paths)}
	var trades []*domain.ParsedTrade
	for _, res := range results {
		stats.RowsRead += res.rows
		stats.RowsSkipped += res.skipped
		trades = append(trades, res.trades...)
	}

	// Timestamp ties break on trade id so the sequence is identical no
	// matter which files the trades arrived in.
	sort.SliceStable(trades, func(i, j int) bool {
		if !trades[i].Timestamp.Equal(trades[j].Timestamp) {
			return trades[i].Timestamp.Before(trades[j].Timestamp)
		}
		return trades[i].TradeID < trades[j].TradeID
	})

	stats.TradesLoaded = len(trades)
	return trades, stats, nil
}
