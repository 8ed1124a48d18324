package rotation

import (
	"sort"

	"nifty-rotation/internal/models"
)

// Transitions compares the sectors selected this cycle with the previous
// cycle's selection.
func Transitions(previous, current []string) models.SectorTransition {
	prev := make(map[string]bool, len(previous))
	for _, s := range previous {
		prev[s] = true
	}
	cur := make(map[string]bool, len(current))
	for _, s := range current {
		cur[s] = true
	}

	var t models.SectorTransition
	for _, s := range current {
		if prev[s] {
			t.Maintained = append(t.Maintained, s)
		} else {
			t.Added = append(t.Added, s)
		}
	}
	for _, s := range previous {
		if !cur[s] {
			t.Removed = append(t.Removed, s)
		}
	}
	sort.Strings(t.Added)
	sort.Strings(t.Removed)
	sort.Strings(t.Maintained)
	return t
}
