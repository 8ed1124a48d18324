package analytics

import "time"

// DrawdownPeriod runs from a peak to the first value that regains it.
type DrawdownPeriod struct {
	Peak      time.Time `json:"peak"`
	Trough    time.Time `json:"trough"`
	Recovery  time.Time `json:"recovery"`
	Depth     float64   `json:"depth"`
	Days      int       `json:"days"`
	Recovered bool      `json:"recovered"`
}

// Drawdowns returns (v - running max)/running max for every point.
func Drawdowns(values []float64) []float64 {
	out := make([]float64, len(values))
	var peak float64
	for i, v := range values {
		if i == 0 || v > peak {
			peak = v
		}
		if peak > 0 {
			out[i] = (v - peak) / peak
		}
	}
	return out
}

// MaxDrawdown returns the deepest drawdown, a value <= 0.
func MaxDrawdown(values []float64) float64 {
	var worst float64
	for _, d := range Drawdowns(values) {
		if d < worst {
			worst = d
		}
	}
	return worst
}

// DrawdownPeriods lists every peak-to-recovery episode in calendar days.
// An episode still open at the last date ends there and is not recovered.
func DrawdownPeriods(dates []time.Time, values []float64) []DrawdownPeriod {
	var out []DrawdownPeriod
	if len(values) == 0 {
		return out
	}

	peakIdx := 0
	var cur *DrawdownPeriod
	for i := 1; i < len(values); i++ {
		switch {
		case values[i] >= values[peakIdx]:
			if cur != nil {
				cur.Recovery = dates[i]
				cur.Recovered = true
				cur.Days = days(cur.Peak, dates[i])
				out = append(out, *cur)
				cur = nil
			}
			peakIdx = i
		default:
			depth := (values[i] - values[peakIdx]) / values[peakIdx]
			if cur == nil {
				cur = &DrawdownPeriod{Peak: dates[peakIdx], Trough: dates[i], Depth: depth}
			} else if depth < cur.Depth {
				cur.Trough, cur.Depth = dates[i], depth
			}
		}
	}
	if cur != nil {
		last := dates[len(dates)-1]
		cur.Recovery = last
		cur.Days = days(cur.Peak, last)
		out = append(out, *cur)
	}
	return out
}

func days(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
