package analytics

import "time"

// MonthlyReturn is the geometric return of one calendar month.
type MonthlyReturn struct {
	Year   int        `json:"year"`
	Month  time.Month `json:"month"`
	Return float64    `json:"return"`
}

// YearRow is one row of the year by month table.
type YearRow struct {
	Year   int          `json:"year"`
	Months [12]*float64 `json:"months"`
	Total  float64      `json:"total"`
}

// MonthlyReturns resamples the series to month-end values and returns the
// change between consecutive month ends. The first month is measured
// against initial.
func MonthlyReturns(dates []time.Time, values []float64, initial float64) []MonthlyReturn {
	var out []MonthlyReturn
	prev := initial
	for i := range values {
		last := i == len(values)-1
		if !last && sameMonth(dates[i], dates[i+1]) {
			continue
		}
		r := 0.0
		if prev != 0 {
			r = values[i]/prev - 1
		}
		out = append(out, MonthlyReturn{Year: dates[i].Year(), Month: dates[i].Month(), Return: r})
		prev = values[i]
	}
	return out
}

// MonthlyTable pivots monthly returns into years, compounding each year's
// months into its total.
func MonthlyTable(monthly []MonthlyReturn) []YearRow {
	var rows []YearRow
	for _, m := range monthly {
		if len(rows) == 0 || rows[len(rows)-1].Year != m.Year {
			rows = append(rows, YearRow{Year: m.Year})
		}
		row := &rows[len(rows)-1]
		r := m.Return
		row.Months[m.Month-1] = &r
		row.Total = (1+row.Total)*(1+r) - 1
	}
	return rows
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
