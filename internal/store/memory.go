package store

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "nifty-rotation/internal/errors"
	"nifty-rotation/internal/models"
)

// MemoryStore is an in-memory store for demo runs and tests. Snapshots are
// kept in their encoded form so callers never share state with the store.
type MemoryStore struct {
	mu           sync.RWMutex
	instruments  map[string]models.Instrument
	candles      map[string][]models.Candle
	fundamentals map[string][]models.Fundamentals
	runs         map[string]RunInfo
	snapshots    map[string][]byte
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		instruments:  make(map[string]models.Instrument),
		candles:      make(map[string][]models.Candle),
		fundamentals: make(map[string][]models.Fundamentals),
		runs:         make(map[string]RunInfo),
		snapshots:    make(map[string][]byte),
	}
}

// SaveInstruments upserts instruments.
func (m *MemoryStore) SaveInstruments(_ context.Context, instruments []models.Instrument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, in := range instruments {
		m.instruments[in.Symbol] = in
	}
	return nil
}

// Universe returns every instrument ordered by symbol.
func (m *MemoryStore) Universe(_ context.Context) ([]models.Instrument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Instrument, 0, len(m.instruments))
	for _, in := range m.instruments {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

// SaveCandles merges bars into symbol's history, replacing same-day bars.
func (m *MemoryStore) SaveCandles(_ context.Context, symbol string, candles []models.Candle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byTime := make(map[time.Time]models.Candle, len(m.candles[symbol])+len(candles))
	for _, c := range m.candles[symbol] {
		byTime[c.Timestamp] = c
	}
	for _, c := range candles {
		c.Timestamp = c.Timestamp.UTC()
		byTime[c.Timestamp] = c
	}
	merged := make([]models.Candle, 0, len(byTime))
	for _, c := range byTime {
		merged = append(merged, c)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp.Before(merged[j].Timestamp) })
	m.candles[symbol] = merged
	return nil
}

// PriceSeries returns a copy of symbol's bars within [start, end]. Zero
// bounds are open.
func (m *MemoryStore) PriceSeries(_ context.Context, symbol string, start, end time.Time) (models.PriceSeries, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	series := models.PriceSeries{Symbol: symbol}
	for _, c := range m.candles[symbol] {
		if (!start.IsZero() && c.Timestamp.Before(start)) || (!end.IsZero() && c.Timestamp.After(end)) {
			continue
		}
		series.Candles = append(series.Candles, c)
	}
	return series, nil
}

// SectorIndexSeries resolves the index instrument of sector and returns its
// bars.
func (m *MemoryStore) SectorIndexSeries(ctx context.Context, sector string, start, end time.Time) (models.PriceSeries, error) {
	m.mu.RLock()
	symbol := ""
	for _, in := range m.instruments {
		if in.Kind == models.InstrumentSectorIndex && in.Sector == sector && (symbol == "" || in.Symbol < symbol) {
			symbol = in.Symbol
		}
	}
	m.mu.RUnlock()

	if symbol == "" {
		return models.PriceSeries{}, apperrors.NewDataError("sector_index", sector, "no index instrument", apperrors.ErrDataNotFound)
	}
	return m.PriceSeries(ctx, symbol, start, end)
}

// SaveFundamentals upserts fundamental snapshots keyed by symbol and date.
func (m *MemoryStore) SaveFundamentals(_ context.Context, snapshots []models.Fundamentals) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range snapshots {
		f.AsOf = f.AsOf.UTC()
		list := m.fundamentals[f.Symbol]
		replaced := false
		for i := range list {
			if list[i].AsOf.Equal(f.AsOf) {
				list[i], replaced = f, true
			}
		}
		if !replaced {
			list = append(list, f)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].AsOf.Before(list[j].AsOf) })
		m.fundamentals[f.Symbol] = list
	}
	return nil
}

// Fundamentals returns the latest snapshot dated on or before asOf.
func (m *MemoryStore) Fundamentals(_ context.Context, symbol string, asOf time.Time) (*models.Fundamentals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.fundamentals[symbol]
	for i := len(list) - 1; i >= 0; i-- {
		if !list[i].AsOf.After(asOf) {
			f := list[i]
			return &f, nil
		}
	}
	return nil, nil
}

// SaveRun upserts run metadata.
func (m *MemoryStore) SaveRun(_ context.Context, run RunInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

// SaveSnapshots replaces the snapshots of runID.
func (m *MemoryStore) SaveSnapshots(_ context.Context, runID string, snapshots []models.PortfolioSnapshot) error {
	data, err := encode(snapshots)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[runID] = data
	return nil
}

// LoadSnapshots returns a fresh copy of the snapshots of runID.
func (m *MemoryStore) LoadSnapshots(_ context.Context, runID string) ([]models.PortfolioSnapshot, error) {
	m.mu.RLock()
	_, ok := m.runs[runID]
	data := m.snapshots[runID]
	m.mu.RUnlock()

	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrRunNotFound, "run %s", runID)
	}
	var out []models.PortfolioSnapshot
	if len(data) == 0 {
		return out, nil
	}
	if err := decode(data, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Date = out[i].Date.UTC()
	}
	return out, nil
}

// Run returns the metadata of runID.
func (m *MemoryStore) Run(_ context.Context, runID string) (RunInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[runID]
	if !ok {
		return run, apperrors.Wrapf(apperrors.ErrRunNotFound, "run %s", runID)
	}
	return run, nil
}

// ListRuns returns every run, newest first.
func (m *MemoryStore) ListRuns(_ context.Context) ([]RunInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RunInfo, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
