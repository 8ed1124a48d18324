package analytics

import (
	"errors"
	"math"

	"nifty-rotation/internal/analysis/stats"
)

// ErrAlreadyAnnualized is returned when annualizing a figure twice.
var ErrAlreadyAnnualized = errors.New("statistic is already annualized")

// Stat is a derived figure tagged with its time units.
type Stat struct {
	Value      float64 `json:"value"`
	Annualized bool    `json:"annualized"`
}

// Daily tags a per-day figure.
func Daily(v float64) Stat {
	return Stat{Value: v}
}

// Annual tags a figure that is already expressed per year.
func Annual(v float64) Stat {
	return Stat{Value: v, Annualized: true}
}

// annualizeDeviation scales a daily dispersion by sqrt(252). It is the
// only place a daily figure becomes annual.
func annualizeDeviation(s Stat) (Stat, error) {
	if s.Annualized {
		return s, ErrAlreadyAnnualized
	}
	return Annual(s.Value * math.Sqrt(stats.TradingDays)), nil
}

// ratio divides two annual figures, reporting 0 for a zero denominator.
func ratio(num, den Stat) Stat {
	if den.Value == 0 || math.IsNaN(den.Value) {
		return Annual(0)
	}
	return Annual(num.Value / den.Value)
}
