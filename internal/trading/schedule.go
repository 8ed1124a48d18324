package trading

import (
	"time"

	"github.com/robfig/cron/v3"

	apperrors "nifty-rotation/internal/errors"
)

// Schedule turns a cron spec into rebalance dates on a trading calendar.
type Schedule struct {
	spec  string
	sched cron.Schedule
}

// NewSchedule parses a standard five-field cron spec.
func NewSchedule(spec string) (*Schedule, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, apperrors.NewValidationError("strategy.rebalance_schedule", spec, err.Error())
	}
	return &Schedule{spec: spec, sched: sched}, nil
}

// Dates returns the rebalance dates within [start, end]. Each cron firing
// snaps forward to the first trading day on or after it; firings that
// snap to the same day collapse. days must be sorted.
func (s *Schedule) Dates(days []time.Time, start, end time.Time) ([]time.Time, error) {
	var out []time.Time
	if len(days) == 0 {
		return nil, apperrors.ErrNoRebalanceDates
	}

	idx := 0
	fire := s.sched.Next(start.Add(-time.Nanosecond))
	for !fire.IsZero() && !fire.After(end) {
		for idx < len(days) && days[idx].Before(truncateDay(fire)) {
			idx++
		}
		if idx == len(days) {
			break
		}
		d := days[idx]
		if d.After(end) {
			break
		}
		if len(out) == 0 || !out[len(out)-1].Equal(d) {
			out = append(out, d)
		}
		fire = s.sched.Next(fire)
	}

	if len(out) == 0 {
		return nil, apperrors.ErrNoRebalanceDates
	}
	return out, nil
}

// String returns the cron spec.
func (s *Schedule) String() string {
	return s.spec
}
