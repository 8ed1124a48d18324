package indicators

import (
	"fmt"

	"github.com/markcheno/go-talib"

	"nifty-rotation/internal/models"
)

// AverageVolume calculates the simple moving average of traded volume.
type AverageVolume struct {
	period int
}

// NewAverageVolume creates a new average volume indicator.
func NewAverageVolume(period int) *AverageVolume {
	return &AverageVolume{period: period}
}

func (a *AverageVolume) Name() string {
	return fmt.Sprintf("AvgVolume_%d", a.period)
}

func (a *AverageVolume) Period() int {
	return a.period
}

func (a *AverageVolume) Calculate(candles []models.Candle) ([]float64, error) {
	if a.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < a.period {
		return nil, ErrInsufficientData
	}
	return talib.Sma(volumes(candles), a.period), nil
}
