// Package store provides the market data provider and run persistence
// interfaces with SQLite, in-memory and Parquet implementations.
package store

import (
	"context"
	"time"

	"nifty-rotation/internal/models"
)

// MarketData serves the point-in-time inputs of a backtest.
type MarketData interface {
	// PriceSeries returns the daily bars of symbol within [start, end].
	PriceSeries(ctx context.Context, symbol string, start, end time.Time) (models.PriceSeries, error)
	// SectorIndexSeries returns the bars of the index tracking sector.
	SectorIndexSeries(ctx context.Context, sector string, start, end time.Time) (models.PriceSeries, error)
	// Fundamentals returns the latest snapshot dated on or before asOf, or
	// nil when there is none.
	Fundamentals(ctx context.Context, symbol string, asOf time.Time) (*models.Fundamentals, error)
	// Universe returns every known instrument.
	Universe(ctx context.Context) ([]models.Instrument, error)
}

// MarketWriter loads market data into a store.
type MarketWriter interface {
	SaveInstruments(ctx context.Context, instruments []models.Instrument) error
	SaveCandles(ctx context.Context, symbol string, candles []models.Candle) error
	SaveFundamentals(ctx context.Context, snapshots []models.Fundamentals) error
}

// RunInfo describes one persisted backtest run.
type RunInfo struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	InitialCapital float64   `json:"initial_capital"`
	FinalValue     float64   `json:"final_value"`
	Snapshots      int       `json:"snapshots"`
	Benchmark      string    `json:"benchmark,omitempty"`
	Label          string    `json:"label,omitempty"`
}

// SnapshotStore persists backtest runs and their daily snapshots.
// Saving a run or snapshot that already exists replaces it.
type SnapshotStore interface {
	SaveRun(ctx context.Context, run RunInfo) error
	SaveSnapshots(ctx context.Context, runID string, snapshots []models.PortfolioSnapshot) error
	LoadSnapshots(ctx context.Context, runID string) ([]models.PortfolioSnapshot, error)
	Run(ctx context.Context, runID string) (RunInfo, error)
	ListRuns(ctx context.Context) ([]RunInfo, error)
}

// Compile-time interface checks.
var (
	_ MarketData    = (*SQLiteStore)(nil)
	_ MarketWriter  = (*SQLiteStore)(nil)
	_ SnapshotStore = (*SQLiteStore)(nil)
	_ MarketData    = (*MemoryStore)(nil)
	_ MarketWriter  = (*MemoryStore)(nil)
	_ SnapshotStore = (*MemoryStore)(nil)
)
