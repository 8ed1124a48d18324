package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "nifty-rotation/internal/errors"
	"nifty-rotation/internal/models"
)

// SQLiteStore implements MarketData, MarketWriter and SnapshotStore on
// SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Instruments: stocks, sector indices and the benchmark
	CREATE TABLE IF NOT EXISTS instruments (
		symbol TEXT PRIMARY KEY,
		name TEXT,
		sector TEXT,
		kind TEXT NOT NULL
	);

	-- Daily OHLCV bars
	CREATE TABLE IF NOT EXISTS candles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume INTEGER NOT NULL,
		UNIQUE(symbol, timestamp)
	);

	-- Point-in-time fundamentals; NULL marks a missing metric
	CREATE TABLE IF NOT EXISTS fundamentals (
		symbol TEXT NOT NULL,
		as_of DATETIME NOT NULL,
		roe REAL,
		roce REAL,
		eps_cagr REAL,
		pe REAL,
		pb REAL,
		debt_to_equity REAL,
		current_ratio REAL,
		market_cap REAL,
		PRIMARY KEY(symbol, as_of)
	);

	-- Backtest runs
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		start_date DATETIME NOT NULL,
		end_date DATETIME NOT NULL,
		initial_capital REAL NOT NULL,
		final_value REAL NOT NULL,
		snapshots INTEGER NOT NULL,
		benchmark TEXT,
		label TEXT
	);

	-- Daily snapshots; positions and cycle detail are msgpack blobs
	CREATE TABLE IF NOT EXISTS snapshots (
		run_id TEXT NOT NULL,
		date DATETIME NOT NULL,
		total_value REAL NOT NULL,
		cash REAL NOT NULL,
		positions BLOB,
		cycle BLOB,
		PRIMARY KEY(run_id, date),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_candles_symbol ON candles(symbol);
	CREATE INDEX IF NOT EXISTS idx_candles_timestamp ON candles(timestamp);
	CREATE INDEX IF NOT EXISTS idx_instruments_kind ON instruments(kind, sector);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Market data
// ============================================================================

// SaveInstruments upserts instruments.
func (s *SQLiteStore) SaveInstruments(ctx context.Context, instruments []models.Instrument) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO instruments (symbol, name, sector, kind)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, in := range instruments {
		if _, err := stmt.ExecContext(ctx, in.Symbol, in.Name, in.Sector, string(in.Kind)); err != nil {
			return fmt.Errorf("failed to insert instrument %s: %w", in.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Universe returns every instrument ordered by symbol.
func (s *SQLiteStore) Universe(ctx context.Context) ([]models.Instrument, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, COALESCE(name, ''), COALESCE(sector, ''), kind
		FROM instruments
		ORDER BY symbol ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query instruments: %w", err)
	}
	defer rows.Close()

	var out []models.Instrument
	for rows.Next() {
		var in models.Instrument
		var kind string
		if err := rows.Scan(&in.Symbol, &in.Name, &in.Sector, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan instrument: %w", err)
		}
		in.Kind = models.InstrumentKind(kind)
		out = append(out, in)
	}
	return out, rows.Err()
}

// SaveCandles upserts daily bars for symbol.
func (s *SQLiteStore) SaveCandles(ctx context.Context, symbol string, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO candles (symbol, timestamp, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		_, err := stmt.ExecContext(ctx, symbol, c.Timestamp.UTC(), c.Open, c.High, c.Low, c.Close, c.Volume)
		if err != nil {
			return fmt.Errorf("failed to insert candle: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// PriceSeries returns the bars of symbol within [start, end]. Zero bounds
// are open.
func (s *SQLiteStore) PriceSeries(ctx context.Context, symbol string, start, end time.Time) (models.PriceSeries, error) {
	series := models.PriceSeries{Symbol: symbol}
	query := "SELECT timestamp, open, high, low, close, volume FROM candles WHERE symbol = ?"
	args := []interface{}{symbol}
	if !start.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, start.UTC())
	}
	if !end.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, end.UTC())
	}
	query += " ORDER BY timestamp ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return series, apperrors.Wrap(apperrors.ErrDatabaseError, fmt.Sprintf("query candles %s: %v", symbol, err))
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return series, fmt.Errorf("failed to scan candle: %w", err)
		}
		c.Timestamp = c.Timestamp.UTC()
		series.Candles = append(series.Candles, c)
	}
	if err := rows.Err(); err != nil {
		return series, fmt.Errorf("error iterating candles: %w", err)
	}
	return series, nil
}

// SectorIndexSeries resolves the index instrument of sector and returns its
// bars.
func (s *SQLiteStore) SectorIndexSeries(ctx context.Context, sector string, start, end time.Time) (models.PriceSeries, error) {
	var symbol string
	err := s.db.QueryRowContext(ctx, `
		SELECT symbol FROM instruments WHERE kind = ? AND sector = ? ORDER BY symbol LIMIT 1
	`, string(models.InstrumentSectorIndex), sector).Scan(&symbol)
	if err == sql.ErrNoRows {
		return models.PriceSeries{}, apperrors.NewDataError("sector_index", sector, "no index instrument", apperrors.ErrDataNotFound)
	}
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("failed to resolve sector index: %w", err)
	}
	return s.PriceSeries(ctx, symbol, start, end)
}

// SaveFundamentals upserts fundamental snapshots.
func (s *SQLiteStore) SaveFundamentals(ctx context.Context, snapshots []models.Fundamentals) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO fundamentals
			(symbol, as_of, roe, roce, eps_cagr, pe, pb, debt_to_equity, current_ratio, market_cap)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, f := range snapshots {
		_, err := stmt.ExecContext(ctx, f.Symbol, f.AsOf.UTC(),
			f.ROE, f.ROCE, f.EPSCAGR, f.PE, f.PB, f.DebtToEquity, f.CurrentRatio, f.MarketCap)
		if err != nil {
			return fmt.Errorf("failed to insert fundamentals for %s: %w", f.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Fundamentals returns the latest snapshot of symbol dated on or before
// asOf, or nil when none exists.
func (s *SQLiteStore) Fundamentals(ctx context.Context, symbol string, asOf time.Time) (*models.Fundamentals, error) {
	f := &models.Fundamentals{Symbol: symbol}
	var roe, roce, eps, pe, pb, de, cr, mc sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT as_of, roe, roce, eps_cagr, pe, pb, debt_to_equity, current_ratio, market_cap
		FROM fundamentals
		WHERE symbol = ? AND as_of <= ?
		ORDER BY as_of DESC
		LIMIT 1
	`, symbol, asOf.UTC()).Scan(&f.AsOf, &roe, &roce, &eps, &pe, &pb, &de, &cr, &mc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query fundamentals: %w", err)
	}

	f.AsOf = f.AsOf.UTC()
	f.ROE, f.ROCE, f.EPSCAGR = nullable(roe), nullable(roce), nullable(eps)
	f.PE, f.PB = nullable(pe), nullable(pb)
	f.DebtToEquity, f.CurrentRatio, f.MarketCap = nullable(de), nullable(cr), nullable(mc)
	return f, nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	x := v.Float64
	return &x
}

// ============================================================================
// Runs and snapshots
// ============================================================================

// SaveRun upserts run metadata.
func (s *SQLiteStore) SaveRun(ctx context.Context, run RunInfo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (id, created_at, start_date, end_date, initial_capital, final_value, snapshots, benchmark, label)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.CreatedAt.UTC(), run.Start.UTC(), run.End.UTC(), run.InitialCapital, run.FinalValue,
		run.Snapshots, run.Benchmark, run.Label)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// SaveSnapshots replaces the snapshots of runID.
func (s *SQLiteStore) SaveSnapshots(ctx context.Context, runID string, snapshots []models.PortfolioSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO snapshots (run_id, date, total_value, cash, positions, cycle)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, snap := range snapshots {
		positions, err := encode(snap.Positions)
		if err != nil {
			return fmt.Errorf("failed to encode positions: %w", err)
		}
		var cycle []byte
		if snap.Cycle != nil {
			if cycle, err = encode(snap.Cycle); err != nil {
				return fmt.Errorf("failed to encode cycle: %w", err)
			}
		}
		if _, err := stmt.ExecContext(ctx, runID, snap.Date.UTC(), snap.TotalValue, snap.Cash, positions, cycle); err != nil {
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadSnapshots returns the snapshots of runID in date order.
func (s *SQLiteStore) LoadSnapshots(ctx context.Context, runID string) ([]models.PortfolioSnapshot, error) {
	if _, err := s.Run(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, total_value, cash, positions, cycle
		FROM snapshots
		WHERE run_id = ?
		ORDER BY date ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var out []models.PortfolioSnapshot
	for rows.Next() {
		var snap models.PortfolioSnapshot
		var positions, cycle []byte
		if err := rows.Scan(&snap.Date, &snap.TotalValue, &snap.Cash, &positions, &cycle); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap.Date = snap.Date.UTC()
		if len(positions) > 0 {
			if err := decode(positions, &snap.Positions); err != nil {
				return nil, fmt.Errorf("failed to decode positions: %w", err)
			}
		}
		if len(cycle) > 0 {
			snap.Cycle = &models.CycleDetail{}
			if err := decode(cycle, snap.Cycle); err != nil {
				return nil, fmt.Errorf("failed to decode cycle: %w", err)
			}
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Run returns the metadata of runID.
func (s *SQLiteStore) Run(ctx context.Context, runID string) (RunInfo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, start_date, end_date, initial_capital, final_value, snapshots,
			COALESCE(benchmark, ''), COALESCE(label, '')
		FROM runs WHERE id = ?
	`, runID)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return run, apperrors.Wrapf(apperrors.ErrRunNotFound, "run %s", runID)
	}
	if err != nil {
		return run, fmt.Errorf("failed to query run: %w", err)
	}
	return run, nil
}

// ListRuns returns every run, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, start_date, end_date, initial_capital, final_value, snapshots,
			COALESCE(benchmark, ''), COALESCE(label, '')
		FROM runs
		ORDER BY created_at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (RunInfo, error) {
	var r RunInfo
	err := row.Scan(&r.ID, &r.CreatedAt, &r.Start, &r.End, &r.InitialCapital, &r.FinalValue,
		&r.Snapshots, &r.Benchmark, &r.Label)
	r.CreatedAt, r.Start, r.End = r.CreatedAt.UTC(), r.Start.UTC(), r.End.UTC()
	return r, err
}
