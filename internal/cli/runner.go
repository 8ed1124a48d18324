package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"nifty-rotation/internal/analytics"
	"nifty-rotation/internal/config"
	apperrors "nifty-rotation/internal/errors"
	"nifty-rotation/internal/logging"
	"nifty-rotation/internal/models"
	"nifty-rotation/internal/store"
	"nifty-rotation/internal/trading"
)

// Runner executes backtests against a market store and persists them.
type Runner struct {
	Config *config.Config
	Market store.MarketData
	Runs   store.SnapshotStore
	Logger zerolog.Logger
}

// Outcome is a finished, persisted run.
type Outcome struct {
	Run    store.RunInfo
	Result *trading.Result
	Report *analytics.Report
}

// Run simulates the configured strategy over u, stores the snapshots and
// analyzes them. label is recorded with the run.
func (r *Runner) Run(ctx context.Context, u models.Universe, label string) (*Outcome, error) {
	_, end, err := r.Config.Period()
	if err != nil {
		return nil, err
	}

	// History before the start date feeds warm-up and lookbacks.
	data, err := trading.LoadMarketData(ctx, r.Market, u, time.Time{}, end, r.Logger)
	if err != nil {
		return nil, err
	}
	engine, err := trading.NewEngine(r.Config, r.Logger)
	if err != nil {
		return nil, err
	}
	res, err := engine.Run(ctx, data, r.Market)
	if err != nil {
		return nil, err
	}

	bench := r.benchmark(ctx, data, end)
	report, err := r.analyzer().Analyze(analytics.Input{
		Snapshots:      res.Snapshots,
		InitialCapital: res.InitialCapital,
		Benchmark:      bench,
	})
	if err != nil {
		return nil, err
	}

	info := store.RunInfo{
		ID:             res.RunID,
		CreatedAt:      time.Now().UTC(),
		Start:          res.Start,
		End:            res.End,
		InitialCapital: res.InitialCapital,
		FinalValue:     report.FinalValue,
		Snapshots:      len(res.Snapshots),
		Label:          label,
	}
	if bench != nil {
		info.Benchmark = bench.Symbol
	}
	if err := r.Runs.SaveRun(ctx, info); err != nil {
		return nil, err
	}
	if err := r.Runs.SaveSnapshots(ctx, info.ID, res.Snapshots); err != nil {
		return nil, err
	}

	logging.WithRun(r.Logger, info.ID).Info().
		Float64("final_value", info.FinalValue).
		Float64("cagr", report.CAGR.Value).
		Msg("Run saved")
	return &Outcome{Run: info, Result: res, Report: report}, nil
}

// Report recomputes the report of a stored run.
func (r *Runner) Report(ctx context.Context, runID string) (store.RunInfo, *analytics.Report, error) {
	info, err := r.Runs.Run(ctx, runID)
	if err != nil {
		return info, nil, err
	}
	snaps, err := r.Runs.LoadSnapshots(ctx, runID)
	if err != nil {
		return info, nil, err
	}

	var bench *models.PriceSeries
	if info.Benchmark != "" && r.Market != nil {
		bench = r.series(ctx, info.Benchmark, info.End)
	}
	report, err := r.analyzer().Analyze(analytics.Input{
		Snapshots:      snaps,
		InitialCapital: info.InitialCapital,
		Benchmark:      bench,
	})
	return info, report, err
}

func (r *Runner) analyzer() *analytics.Analyzer {
	return analytics.NewAnalyzer(r.Config.Analysis, r.Logger)
}

// benchmark returns the configured benchmark series, reusing the loaded
// universe benchmark when the symbols match.
func (r *Runner) benchmark(ctx context.Context, data *trading.MarketData, end time.Time) *models.PriceSeries {
	symbol := r.Config.Analysis.Benchmark
	if symbol == "" || (data.Benchmark != nil && data.Benchmark.Symbol == symbol) {
		return data.Benchmark
	}
	return r.series(ctx, symbol, end)
}

func (r *Runner) series(ctx context.Context, symbol string, end time.Time) *models.PriceSeries {
	s, err := r.Market.PriceSeries(ctx, symbol, time.Time{}, end)
	if err != nil || s.Len() == 0 {
		ev := r.Logger.Warn().Str("symbol", symbol)
		if err != nil {
			ev = ev.Err(err)
		}
		ev.Msg("Benchmark unavailable")
		return nil
	}
	return &s
}

// resolveUniverse reads the universe file when one is configured, registering
// its instruments with w; otherwise the store's instruments are used.
func resolveUniverse(ctx context.Context, path string, market store.MarketData, w store.MarketWriter) (models.Universe, error) {
	if path != "" {
		u, err := config.LoadUniverse(path)
		if err != nil {
			return u, err
		}
		if err := w.SaveInstruments(ctx, u.Instruments()); err != nil {
			return u, err
		}
		return u, nil
	}

	instruments, err := market.Universe(ctx)
	if err != nil {
		return models.Universe{}, err
	}
	u := models.NewUniverse(instruments)
	if len(u.Stocks) == 0 {
		return u, fmt.Errorf("%w: no instruments in store (seed one with 'rotation demo --db')", apperrors.ErrEmptyUniverse)
	}
	return u, nil
}
