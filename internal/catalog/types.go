package catalog

import (
	"sort"

	"github.com/google/uuid"
)

// Competency is one of the capabilities tracked across a student's reports.
type Competency struct {
	ID           uuid.UUID
	Name         string
	Description  string
	DisplayOrder int
	Active       bool
}

// Phase is a stage of the inquiry-learning cycle.
type Phase struct {
	ID           uuid.UUID
	Name         string
	DisplayOrder int
	Active       bool
}

// SortCompetencies orders competencies by display order, breaking ties by id.
func SortCompetencies(cs []Competency) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].DisplayOrder != cs[j].DisplayOrder {
			return cs[i].DisplayOrder < cs[j].DisplayOrder
		}
		return cs[i].ID.String() < cs[j].ID.String()
	})
}

// SortPhases orders phases by display order, breaking ties by id.
func SortPhases(ps []Phase) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].DisplayOrder != ps[j].DisplayOrder {
			return ps[i].DisplayOrder < ps[j].DisplayOrder
		}
		return ps[i].ID.String() < ps[j].ID.String()
	})
}
