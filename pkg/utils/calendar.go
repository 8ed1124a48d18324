package utils

import "time"

// IndiaLocation is the timezone for Indian markets.
var IndiaLocation *time.Location

func init() {
	var err error
	IndiaLocation, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback to UTC+5:30
		IndiaLocation = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// IsWeekend reports whether t falls on a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Weekdays returns every Monday-to-Friday date in [from, to], skipping the
// given holidays. Holidays match on calendar date.
func Weekdays(from, to time.Time, holidays ...time.Time) []time.Time {
	skip := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		skip[h.Format("2006-01-02")] = true
	}
	var out []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if IsWeekend(d) || skip[d.Format("2006-01-02")] {
			continue
		}
		out = append(out, d)
	}
	return out
}

// FormatDate formats a trading date as shown in NSE reports.
func FormatDate(t time.Time) string {
	return t.Format("02-Jan-2006")
}
