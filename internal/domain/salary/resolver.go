package salary

import (
	"sort"
	"time"
)

// Pick returns the structure that applies to [start, end]. Among several
// candidates the latest effective_from wins, then the latest created_at.
func Pick(candidates []Structure, start, end time.Time) (Structure, bool) {
	var covering []Structure
	for _, c := range candidates {
		if c.Covers(start, end) {
			covering = append(covering, c)
		}
	}
	if len(covering) == 0 {
		return Structure{}, false
	}
	sort.SliceStable(covering, func(i, j int) bool {
		if !covering[i].EffectiveFrom.Equal(covering[j].EffectiveFrom) {
			return covering[i].EffectiveFrom.After(covering[j].EffectiveFrom)
		}
		return covering[i].CreatedAt.After(covering[j].CreatedAt)
	})
	return covering[0], true
}

// GroupByEmployee indexes structures by employee id.
func GroupByEmployee(structures []Structure) map[string][]Structure {
	out := make(map[string][]Structure)
	for _, s := range structures {
		out[s.EmployeeID] = append(out[s.EmployeeID], s)
	}
	return out
}

func overlaps(aFrom time.Time, aTo *time.Time, bFrom time.Time, bTo *time.Time) bool {
	if aTo != nil && aTo.Before(bFrom) {
		return false
	}
	if bTo != nil && bTo.Before(aFrom) {
		return false
	}
	return true
}
