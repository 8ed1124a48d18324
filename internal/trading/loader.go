package trading

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	apperrors "nifty-rotation/internal/errors"
	"nifty-rotation/internal/logging"
	"nifty-rotation/internal/models"
)

// PriceSource serves stored daily bars for stocks, the benchmark and
// sector indices.
type PriceSource interface {
	PriceSeries(ctx context.Context, symbol string, start, end time.Time) (models.PriceSeries, error)
	SectorIndexSeries(ctx context.Context, sector string, start, end time.Time) (models.PriceSeries, error)
}

// LoadMarketData reads every series the universe needs from src. Stocks or
// sector indices without bars are logged and left out; the benchmark is
// optional.
func LoadMarketData(ctx context.Context, src PriceSource, u models.Universe, start, end time.Time, logger zerolog.Logger) (*MarketData, error) {
	if len(u.Stocks) == 0 {
		return nil, apperrors.ErrEmptyUniverse
	}
	logger = logging.WithOperation(logger, "load")

	load := func(symbol string, fetch func(context.Context, string, time.Time, time.Time) (models.PriceSeries, error)) (models.PriceSeries, bool, error) {
		s, err := fetch(ctx, symbol, start, end)
		if apperrors.Is(err, apperrors.ErrDataNotFound) || (err == nil && s.Len() == 0) {
			return s, false, nil
		}
		if err != nil {
			return s, false, apperrors.NewDataError("prices", symbol, "load failed", err)
		}
		if err := s.Validate(); err != nil {
			return s, false, apperrors.NewDataError("prices", symbol, "unordered bars", err)
		}
		return s, true, nil
	}

	data := &MarketData{
		Universe: u,
		Stocks:   make(map[string]models.PriceSeries, len(u.Stocks)),
		Sectors:  make(map[string]models.PriceSeries, len(u.Sectors)),
	}
	for _, st := range u.Stocks {
		s, ok, err := load(st.Symbol, src.PriceSeries)
		if err != nil {
			return nil, err
		}
		if !ok {
			logging.LogExclusion(logger, st.Symbol, "no price history")
			continue
		}
		data.Stocks[st.Symbol] = s
	}
	for _, sec := range u.Sectors {
		s, ok, err := load(sec.Name, src.SectorIndexSeries)
		if err != nil {
			return nil, err
		}
		if !ok {
			logging.LogExclusion(logger, sec.Name, "no index history")
			continue
		}
		data.Sectors[sec.Name] = s
	}
	if u.Benchmark != "" {
		s, ok, err := load(u.Benchmark, src.PriceSeries)
		if err != nil {
			return nil, err
		}
		if ok {
			data.Benchmark = &s
		}
	}

	if len(data.Stocks) == 0 {
		return nil, apperrors.NewDataError("prices", "", "no stock has price history", apperrors.ErrInsufficientData)
	}
	logger.Debug().
		Int("stocks", len(data.Stocks)).
		Int("sectors", len(data.Sectors)).
		Bool("benchmark", data.Benchmark != nil).
		Msg("Market data loaded")
	return data, nil
}
