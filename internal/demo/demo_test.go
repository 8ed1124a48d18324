package demo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nifty-rotation/internal/models"
	"nifty-rotation/internal/store"
)

func smallOptions(seed uint64) Options {
	return Options{
		Seed:            seed,
		Start:           time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC),
		Years:           1,
		StocksPerSector: 3,
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a := Generate(smallOptions(7))
	b := Generate(smallOptions(7))
	assert.Equal(t, a, b)

	c := Generate(smallOptions(8))
	assert.NotEqual(t, a.Series["TCS"].Candles, c.Series["TCS"].Candles)
}

func TestGenerateShape(t *testing.T) {
	d := Generate(smallOptions(1))

	assert.Equal(t, Benchmark, d.Universe.Benchmark)
	assert.Len(t, d.Universe.Sectors, len(sectors))
	assert.Len(t, d.Universe.Stocks, 3*len(sectors))
	assert.Equal(t, "IT", d.Universe.SectorOf("INFY"))

	for _, in := range d.Instruments() {
		s, ok := d.Series[in.Symbol]
		require.True(t, ok, in.Symbol)
		require.NoError(t, s.Validate())
		require.NotEmpty(t, s.Candles)
		for _, c := range s.Candles {
			assert.Greater(t, c.Close, 0.0)
			assert.GreaterOrEqual(t, c.High, c.Low)
			wd := c.Timestamp.Weekday()
			assert.False(t, wd == time.Saturday || wd == time.Sunday)
		}
	}

	// Indices carry no volume; stocks do.
	assert.Zero(t, d.Series["NIFTYIT"].Candles[0].Volume)
	assert.Positive(t, d.Series["TCS"].Candles[0].Volume)
}

func TestGenerateFundamentals(t *testing.T) {
	d := Generate(smallOptions(3))
	require.NotEmpty(t, d.Fundamentals)

	for _, f := range d.Fundamentals {
		require.NotNil(t, f.ROE)
		assert.GreaterOrEqual(t, *f.ROE, 0.12)
		assert.LessOrEqual(t, *f.ROE, 0.25)
		require.NotNil(t, f.MarketCap)
		assert.Equal(t, 1, f.AsOf.Day())
	}
}

func TestGenerateThinStock(t *testing.T) {
	d := Generate(Options{Seed: 5, Years: 0.5})

	// The last REALTY stock is thin and small.
	thin := d.Series["SOBHA"]
	require.NotEmpty(t, thin.Candles)
	var vol int64
	for _, c := range thin.Candles {
		vol += c.Volume
	}
	assert.Less(t, vol/int64(len(thin.Candles)), int64(100_000))

	for _, f := range d.Fundamentals {
		if f.Symbol == "SOBHA" {
			assert.Equal(t, 5e8, *f.MarketCap)
		}
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	d := Generate(smallOptions(2))
	st := store.NewMemoryStore()

	require.NoError(t, d.Load(ctx, st))

	instruments, err := st.Universe(ctx)
	require.NoError(t, err)
	u := models.NewUniverse(instruments)
	assert.Equal(t, d.Universe.Benchmark, u.Benchmark)
	assert.ElementsMatch(t, d.Universe.Symbols(), u.Symbols())

	s, err := st.SectorIndexSeries(ctx, "BANK", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, d.Series["NIFTYBANK"].Len(), s.Len())

	f, err := st.Fundamentals(ctx, "TCS", time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "TCS", f.Symbol)
}
