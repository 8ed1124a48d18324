package trading

import (
	apperrors "nifty-rotation/internal/errors"
)

// Phase is a step of the rebalance cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseScoring
	PhaseTargetComputed
	PhaseOrdersGenerated
	PhaseOrdersExecuted
	PhaseSnapshotRecorded
)

var phaseNames = [...]string{
	"Idle",
	"Scoring",
	"TargetComputed",
	"OrdersGenerated",
	"OrdersExecuted",
	"SnapshotRecorded",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "Unknown"
	}
	return phaseNames[p]
}

// next lists the single legal successor of each phase.
var next = map[Phase]Phase{
	PhaseIdle:             PhaseScoring,
	PhaseScoring:          PhaseTargetComputed,
	PhaseTargetComputed:   PhaseOrdersGenerated,
	PhaseOrdersGenerated:  PhaseOrdersExecuted,
	PhaseOrdersExecuted:   PhaseSnapshotRecorded,
	PhaseSnapshotRecorded: PhaseIdle,
}

// Cycle tracks the phase of one rebalance cycle.
type Cycle struct {
	phase Phase
}

// Phase returns the current phase.
func (c *Cycle) Phase() Phase {
	return c.phase
}

// Advance moves to the given phase. Any move other than to the single
// successor returns ErrIllegalTransition and leaves the phase unchanged.
func (c *Cycle) Advance(to Phase) error {
	if next[c.phase] != to {
		return apperrors.Wrapf(apperrors.ErrIllegalTransition, "%s -> %s", c.phase, to)
	}
	c.phase = to
	return nil
}
