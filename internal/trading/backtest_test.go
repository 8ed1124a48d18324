package trading

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"nifty-rotation/internal/config"
	"nifty-rotation/internal/models"
)

// wave builds a weekday close series drifting upward with a sinusoidal
// swing.
func wave(symbol string, days []time.Time, drift, amp, phase float64, volume int64) models.PriceSeries {
	s := models.PriceSeries{Symbol: symbol, Candles: make([]models.Candle, len(days))}
	for i, d := range days {
		px := 100 * math.Exp(drift*float64(i)+amp*math.Sin(float64(i)/15+phase))
		s.Candles[i] = models.Candle{Timestamp: d, Open: px, High: px, Low: px, Close: px, Volume: volume}
	}
	return s
}

type sectorSpec struct {
	name  string
	drift float64
}

func marketData() *MarketData {
	days := weekdays(date(2022, 1, 3), date(2023, 12, 29))
	sectors := []sectorSpec{{"BANK", 0.0008}, {"FMCG", 0.0003}, {"IT", 0.0012}}

	data := &MarketData{
		Stocks:  make(map[string]models.PriceSeries),
		Sectors: make(map[string]models.PriceSeries),
	}
	for si, sec := range sectors {
		index := "NIFTY" + sec.name
		data.Universe.Sectors = append(data.Universe.Sectors, models.SectorDef{Name: sec.name, Index: index})
		data.Sectors[sec.name] = wave(index, days, sec.drift, 0.03, float64(si), 0)
		for k := 0; k < 3; k++ {
			sym := sec.name + string(rune('A'+k))
			data.Universe.Stocks = append(data.Universe.Stocks, models.Instrument{
				Symbol: sym, Sector: sec.name, Kind: models.InstrumentStock,
			})
			data.Stocks[sym] = wave(sym, days, sec.drift+0.0002*float64(k), 0.05, float64(si+k), 500_000)
		}
	}
	bench := wave("NIFTY50", days, 0.0006, 0.02, 0, 0)
	data.Benchmark = &bench
	data.Universe.Benchmark = "NIFTY50"
	return data
}

func engineConfig() *config.Config {
	cfg := config.Default()
	cfg.Strategy.TopSectors = 2
	cfg.Strategy.StocksPerSector = 2
	cfg.Strategy.SatelliteTop = 3
	cfg.Strategy.WarmupDays = 400
	return cfg
}

func run(t *testing.T, cfg *config.Config, data *MarketData) *Result {
	t.Helper()
	e, err := NewEngine(cfg, zerolog.Nop())
	require.NoError(t, err)
	res, err := e.Run(context.Background(), data, nil)
	require.NoError(t, err)
	return res
}

func TestEngineRun(t *testing.T) {
	data := marketData()
	cfg := engineConfig()
	res := run(t, cfg, data)

	warm := data.FirstBar().AddDate(0, 0, cfg.Strategy.WarmupDays)
	require.NotEmpty(t, res.RebalanceDates)
	assert.False(t, res.RebalanceDates[0].Before(warm))
	assert.Len(t, res.Snapshots, len(data.TradingDays(res.Start, res.End)))
	assert.NotEmpty(t, res.Trades())

	cycles := 0
	for _, s := range res.Snapshots {
		assert.GreaterOrEqual(t, s.Cash, 0.0, s.Date.String())
		assert.Greater(t, s.TotalValue, 0.0)
		if s.Cycle == nil {
			continue
		}
		cycles++
		c := s.Cycle
		assert.LessOrEqual(t, len(c.TopSectors), cfg.Strategy.TopSectors)
		assert.InDelta(t, c.CashAfter-c.CashBefore, cashFlow(c.Trades), 1e-5)

		var total float64
		for _, w := range c.Targets.Weights {
			total += w
		}
		assert.LessOrEqual(t, total, 1+1e-9)
	}
	assert.Equal(t, len(res.RebalanceDates), cycles)

	dates, values := res.Equity()
	assert.Len(t, dates, len(res.Snapshots))
	assert.Equal(t, res.Snapshots[len(values)-1].TotalValue, values[len(values)-1])
}

func TestEngineIsDeterministic(t *testing.T) {
	encode := func(res *Result) []byte {
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		enc.SetCustomStructTag("json")
		enc.SetSortMapKeys(true)
		require.NoError(t, enc.Encode(res.Snapshots))
		return buf.Bytes()
	}

	a := run(t, engineConfig(), marketData())
	b := run(t, engineConfig(), marketData())
	assert.Equal(t, a.RunID, b.RunID)
	assert.True(t, bytes.Equal(encode(a), encode(b)))

	cfg := engineConfig()
	cfg.Execution.Slippage = 0.002
	c := run(t, cfg, marketData())
	assert.NotEqual(t, a.RunID, c.RunID)
}

func TestEngineRespectsCancellation(t *testing.T) {
	e, err := NewEngine(engineConfig(), zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Run(ctx, marketData(), nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestEngineExplicitPeriod(t *testing.T) {
	cfg := engineConfig()
	cfg.Strategy.Start = "2023-07-01"
	cfg.Strategy.End = "2023-09-30"
	res := run(t, cfg, marketData())

	assert.Equal(t, date(2023, 7, 3), res.Snapshots[0].Date)
	assert.Equal(t, date(2023, 9, 29), res.Snapshots[len(res.Snapshots)-1].Date)
	assert.Equal(t, []time.Time{date(2023, 7, 3), date(2023, 8, 1), date(2023, 9, 1)}, res.RebalanceDates)
}

func TestEngineRejectsBadSchedule(t *testing.T) {
	cfg := engineConfig()
	cfg.Strategy.RebalanceSchedule = "whenever"
	_, err := NewEngine(cfg, zerolog.Nop())
	assert.Error(t, err)
}

type memBars map[string]models.PriceSeries

func (m memBars) PriceSeries(_ context.Context, symbol string, start, end time.Time) (models.PriceSeries, error) {
	s, ok := m[symbol]
	if !ok {
		return models.PriceSeries{Symbol: symbol}, nil
	}
	return models.PriceSeries{Symbol: s.Symbol, Candles: s.Between(start, end)}, nil
}

func (m memBars) SectorIndexSeries(ctx context.Context, sector string, start, end time.Time) (models.PriceSeries, error) {
	return m.PriceSeries(ctx, "sector:"+sector, start, end)
}

func TestLoadMarketData(t *testing.T) {
	src := marketData()
	bars := memBars{}
	for sym, s := range src.Stocks {
		bars[sym] = s
	}
	for name, s := range src.Sectors {
		bars["sector:"+name] = s
	}
	delete(bars, "FMCGA")

	u := src.Universe
	data, err := LoadMarketData(context.Background(), bars, u, time.Time{}, date(2030, 1, 1), zerolog.Nop())
	require.NoError(t, err)
	assert.Len(t, data.Stocks, 8)
	assert.NotContains(t, data.Stocks, "FMCGA")
	assert.Len(t, data.Sectors, 3)
	assert.Equal(t, "NIFTYIT", data.Sectors["IT"].Symbol)
	assert.Nil(t, data.Benchmark)

	_, err = LoadMarketData(context.Background(), memBars{}, u, time.Time{}, date(2030, 1, 1), zerolog.Nop())
	assert.Error(t, err)
}
