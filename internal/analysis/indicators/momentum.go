package indicators

import (
	"fmt"

	"github.com/markcheno/go-talib"

	"nifty-rotation/internal/models"
)

// RSI calculates the Relative Strength Index with Wilder smoothing.
type RSI struct {
	period int
}

// NewRSI creates a new RSI indicator.
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

func (r *RSI) Name() string {
	return fmt.Sprintf("RSI_%d", r.period)
}

func (r *RSI) Period() int {
	return r.period + 1
}

// Calculate returns RSI values in [0, 100]. A window with no price change
// at all reads as neutral (50) rather than go-talib's 0.
func (r *RSI) Calculate(candles []models.Candle) ([]float64, error) {
	if r.period <= 1 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < r.Period() {
		return nil, ErrInsufficientData
	}

	closes := models.Closes(candles)
	if !finite(closes) {
		return nil, ErrInsufficientData
	}
	result := talib.Rsi(closes, r.period)

	// moves counts nonzero changes inside the trailing window ending at i.
	moves := 0
	for i := 1; i < len(closes); i++ {
		if closes[i] != closes[i-1] {
			moves++
		}
		if j := i - r.period; j >= 1 && closes[j] != closes[j-1] {
			moves--
		}
		if i >= r.period && moves == 0 {
			result[i] = 50
		}
	}

	return result, nil
}
