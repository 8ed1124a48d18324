// Package demo generates a seeded synthetic NSE-like market for demo runs
// and tests. Nothing here is real market data.
package demo

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"nifty-rotation/internal/models"
	"nifty-rotation/internal/store"
	"nifty-rotation/pkg/utils"
)

// Label marks every output built from generated data.
const Label = "DEMO (synthetic data)"

// Benchmark is the generated broad-market index.
const Benchmark = "NIFTY50"

type sectorDef struct {
	name   string
	index  string
	stocks []string
}

var sectors = []sectorDef{
	{"AUTO", "NIFTYAUTO", []string{"MARUTI", "TATAMOTORS", "M&M", "BAJAJ-AUTO", "HEROMOTOCO", "EICHERMOT"}},
	{"BANK", "NIFTYBANK", []string{"HDFCBANK", "ICICIBANK", "KOTAKBANK", "SBIN", "AXISBANK", "INDUSINDBK"}},
	{"ENERGY", "NIFTYENERGY", []string{"RELIANCE", "ONGC", "POWERGRID", "NTPC", "IOC", "BPCL"}},
	{"FMCG", "NIFTYFMCG", []string{"HINDUNILVR", "ITC", "NESTLEIND", "BRITANNIA", "DABUR", "MARICO"}},
	{"IT", "NIFTYIT", []string{"TCS", "INFY", "HCLTECH", "WIPRO", "TECHM", "LTIM"}},
	{"METAL", "NIFTYMETAL", []string{"TATASTEEL", "HINDALCO", "JSWSTEEL", "COALINDIA", "VEDL", "JINDALSTEL"}},
	{"PHARMA", "NIFTYPHARMA", []string{"SUNPHARMA", "DRREDDY", "CIPLA", "DIVISLAB", "AUROPHARMA", "LUPIN"}},
	{"REALTY", "NIFTYREALTY", []string{"DLF", "GODREJPROP", "OBEROIRLTY", "PHOENIXLTD", "PRESTIGE", "SOBHA"}},
}

// regimeDays is how long a sector keeps one drift before it is redrawn.
const regimeDays = 126

// Options controls the generated market.
type Options struct {
	Seed  uint64
	Start time.Time
	Years float64
	// StocksPerSector caps the stocks generated per sector; 0 keeps all.
	StocksPerSector int
}

// DefaultOptions returns three years of data starting 2021-01-01.
func DefaultOptions() Options {
	return Options{
		Seed:  42,
		Start: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		Years: 3,
	}
}

// Dataset is a complete generated market.
type Dataset struct {
	Universe     models.Universe
	Series       map[string]models.PriceSeries
	Fundamentals []models.Fundamentals
}

// Instruments returns the universe as tagged instruments.
func (d *Dataset) Instruments() []models.Instrument {
	return d.Universe.Instruments()
}

// Load writes the dataset into w.
func (d *Dataset) Load(ctx context.Context, w store.MarketWriter) error {
	if err := w.SaveInstruments(ctx, d.Instruments()); err != nil {
		return fmt.Errorf("saving demo instruments: %w", err)
	}
	for _, in := range d.Instruments() {
		s, ok := d.Series[in.Symbol]
		if !ok {
			continue
		}
		if err := w.SaveCandles(ctx, in.Symbol, s.Candles); err != nil {
			return fmt.Errorf("saving demo candles for %s: %w", in.Symbol, err)
		}
	}
	if err := w.SaveFundamentals(ctx, d.Fundamentals); err != nil {
		return fmt.Errorf("saving demo fundamentals: %w", err)
	}
	return nil
}

// Generate builds a market from opts. Equal options always produce an
// equal dataset.
func Generate(opts Options) *Dataset {
	if opts.Years <= 0 {
		opts.Years = DefaultOptions().Years
	}
	if opts.Start.IsZero() {
		opts.Start = DefaultOptions().Start
	}
	src := rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)
	g := &generator{
		src:  src,
		norm: distuv.Normal{Mu: 0, Sigma: 1, Src: src},
	}

	days := utils.Weekdays(opts.Start, opts.Start.AddDate(0, 0, int(opts.Years*365.25)))
	n := len(days)

	d := &Dataset{
		Universe: models.Universe{Benchmark: Benchmark},
		Series:   make(map[string]models.PriceSeries),
	}

	market := g.path(n, 0.11, 0.14)
	d.Series[Benchmark] = g.series(Benchmark, days, 18000, market, 0)

	for si, sec := range sectors {
		d.Universe.Sectors = append(d.Universe.Sectors, models.SectorDef{Name: sec.name, Index: sec.index})

		factor := g.regimes(n, 0.12)
		index := make([]float64, n)
		for t := range index {
			index[t] = market[t] + factor[t]
		}
		d.Series[sec.index] = g.series(sec.index, days, 10000+2000*float64(si), index, 0)

		stocks := sec.stocks
		if opts.StocksPerSector > 0 && opts.StocksPerSector < len(stocks) {
			stocks = stocks[:opts.StocksPerSector]
		}
		for k, sym := range stocks {
			beta := g.uniform(0.7, 1.3)
			idio := g.path(n, g.uniform(-0.05, 0.08), g.uniform(0.12, 0.25))
			rets := make([]float64, n)
			for t := range rets {
				rets[t] = beta*market[t] + factor[t] + idio[t]
			}

			// The last stock of the last sector trades thinly and is small.
			thin := si == len(sectors)-1 && k == len(stocks)-1
			volume := g.uniform(3e5, 5e6)
			if thin {
				volume = 20_000
			}
			d.Series[sym] = g.series(sym, days, g.uniform(100, 3000), rets, volume)
			d.Universe.Stocks = append(d.Universe.Stocks, models.Instrument{
				Symbol: sym, Sector: sec.name, Kind: models.InstrumentStock,
			})
			d.Fundamentals = append(d.Fundamentals, g.fundamentals(sym, days[0], days[n-1], thin, k)...)
		}
	}
	return d
}

type generator struct {
	src  rand.Source
	norm distuv.Normal
}

func (g *generator) uniform(lo, hi float64) float64 {
	return distuv.Uniform{Min: lo, Max: hi, Src: g.src}.Rand()
}

// path draws n daily log returns for an annual drift and volatility.
func (g *generator) path(n int, drift, vol float64) []float64 {
	mu := drift / 252
	sigma := vol / math.Sqrt(252)
	out := make([]float64, n)
	for i := range out {
		out[i] = mu + sigma*g.norm.Rand()
	}
	return out
}

// regimes draws a sector factor whose drift is redrawn every regimeDays so
// sector leadership rotates.
func (g *generator) regimes(n int, vol float64) []float64 {
	out := make([]float64, 0, n)
	for len(out) < n {
		m := regimeDays
		if n-len(out) < m {
			m = n - len(out)
		}
		out = append(out, g.path(m, g.uniform(-0.25, 0.35), vol)...)
	}
	return out
}

// series compounds log returns from a start price into daily bars. Volume
// of zero marks an index.
func (g *generator) series(symbol string, days []time.Time, start float64, logReturns []float64, volume float64) models.PriceSeries {
	s := models.PriceSeries{Symbol: symbol, Candles: make([]models.Candle, len(days))}
	prev := start
	for i, d := range days {
		px := prev * math.Exp(logReturns[i])
		spread := math.Abs(g.norm.Rand()) * 0.004 * px
		c := models.Candle{
			Timestamp: d,
			Open:      round2(prev),
			High:      round2(math.Max(prev, px) + spread),
			Low:       round2(math.Min(prev, px) - spread),
			Close:     round2(px),
		}
		if volume > 0 {
			c.Volume = int64(volume * math.Exp(0.3*g.norm.Rand()))
		}
		s.Candles[i] = c
		prev = px
	}
	return s
}

// fundamentals draws one snapshot per quarter. A few metrics are left
// missing so defaults get exercised.
func (g *generator) fundamentals(symbol string, from, to time.Time, small bool, k int) []models.Fundamentals {
	var out []models.Fundamentals
	for q := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC); !q.After(to); q = q.AddDate(0, 3, 0) {
		f := models.Fundamentals{
			Symbol:       symbol,
			AsOf:         q,
			ROE:          ptr(g.uniform(0.12, 0.25)),
			ROCE:         ptr(g.uniform(0.15, 0.30)),
			EPSCAGR:      ptr(g.uniform(0.05, 0.20)),
			PE:           ptr(g.uniform(15, 30)),
			PB:           ptr(g.uniform(2, 8)),
			DebtToEquity: ptr(g.uniform(0.3, 1.2)),
			CurrentRatio: ptr(g.uniform(1.2, 2.5)),
			MarketCap:    ptr(g.uniform(5e10, 5e12)),
		}
		if small {
			f.MarketCap = ptr(5e8)
		}
		if k == 4 {
			f.PB, f.EPSCAGR = nil, nil
		}
		out = append(out, f)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func ptr(v float64) *float64 {
	return &v
}
