package indicators

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"nifty-rotation/internal/models"
)

// bandEpsilon is the band width below which the bands count as collapsed.
const bandEpsilon = 1e-12

// BollingerBands calculates Bollinger Bands around an SMA.
type BollingerBands struct {
	period    int
	stdDevMul float64
}

// NewBollingerBands creates a new Bollinger Bands indicator.
func NewBollingerBands(period int, stdDevMul float64) *BollingerBands {
	return &BollingerBands{
		period:    period,
		stdDevMul: stdDevMul,
	}
}

func (b *BollingerBands) Name() string {
	return fmt.Sprintf("BollingerBands_%d_%.1f", b.period, b.stdDevMul)
}

func (b *BollingerBands) Period() int {
	return b.period
}

// Calculate returns "upper", "middle", "lower" and "percent_b".
// percent_b is 0.5 wherever the bands collapse.
func (b *BollingerBands) Calculate(candles []models.Candle) (map[string][]float64, error) {
	if b.period <= 1 || b.stdDevMul <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < b.period {
		return nil, ErrInsufficientData
	}

	closes := models.Closes(candles)
	// MAType 0 is SMA.
	upper, middle, lower := talib.BBands(closes, b.period, b.stdDevMul, b.stdDevMul, 0)

	percentB := make([]float64, len(closes))
	for i := b.period - 1; i < len(closes); i++ {
		width := upper[i] - lower[i]
		if math.IsNaN(width) || width < bandEpsilon {
			percentB[i] = 0.5
			continue
		}
		percentB[i] = (closes[i] - lower[i]) / width
	}

	return map[string][]float64{
		"upper":     upper,
		"middle":    middle,
		"lower":     lower,
		"percent_b": percentB,
	}, nil
}
