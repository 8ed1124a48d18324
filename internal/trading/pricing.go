package trading

import (
	"sort"
	"time"

	"nifty-rotation/internal/models"
)

// PriceBook resolves reference and mark prices. A missing bar carries the
// previous close forward; a price is never fabricated.
type PriceBook struct {
	series map[string]models.PriceSeries
}

// NewPriceBook creates a price book over the given series.
func NewPriceBook(series map[string]models.PriceSeries) PriceBook {
	return PriceBook{series: series}
}

// Close returns the latest close on or before the end of date's day.
func (b PriceBook) Close(symbol string, date time.Time) (float64, bool) {
	s, ok := b.series[symbol]
	if !ok {
		return 0, false
	}
	c, ok := s.AtOrBefore(endOfDay(date))
	if !ok || c.Close <= 0 {
		return 0, false
	}
	return c.Close, true
}

func endOfDay(t time.Time) time.Time {
	return truncateDay(t).Add(24*time.Hour - time.Nanosecond)
}

func sortTimes(ts []time.Time) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
}
