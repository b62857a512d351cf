package competency

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tankyu/diary/internal/catalog"
)

// AssignmentsPerReport is the fixed number of competencies on a report.
const AssignmentsPerReport = 3

// ErrEmptyCatalog means the catalog cannot supply three distinct
// competencies. It points at missing reference data, not a runtime fault.
var ErrEmptyCatalog = errors.New("competency catalog is not seeded")

// Normalize resolves candidates against the catalog and returns exactly one
// strong and two sub assignments referencing distinct competencies.
//
// The primary is the first candidate declared strong, else the first
// candidate that resolves, else the first resolvable fallback id, else the
// first catalog entry. Subs come from the remaining resolved candidates in
// order, then from fallbackIDs, then from the catalog in display order.
// Candidates naming unknown competencies are dropped. comps must be ordered
// by display order.
func Normalize(candidates []Candidate, comps []catalog.Competency, fallbackIDs []uuid.UUID) ([]Assignment, error) {
	if len(comps) == 0 {
		return nil, fmt.Errorf("%w: no active competencies", ErrEmptyCatalog)
	}

	byName := make(map[string]int, len(comps))
	byID := make(map[uuid.UUID]int, len(comps))
	for i, c := range comps {
		if _, dup := byName[c.Name]; !dup {
			byName[c.Name] = i
		}
		byID[c.ID] = i
	}

	primary := -1
	var secondary []int
	contains := func(idx int) bool {
		for _, s := range secondary {
			if s == idx {
				return true
			}
		}
		return false
	}
	remove := func(idx int) {
		for i, s := range secondary {
			if s == idx {
				secondary = append(secondary[:i], secondary[i+1:]...)
				return
			}
		}
	}

	for _, c := range candidates {
		idx, ok := byName[c.Name]
		if !ok {
			continue
		}
		if c.Role == RoleStrong && primary < 0 {
			primary = idx
			remove(idx)
			continue
		}
		if idx != primary && !contains(idx) {
			secondary = append(secondary, idx)
		}
	}

	if primary < 0 {
		for _, c := range candidates {
			if idx, ok := byName[c.Name]; ok {
				primary = idx
				remove(idx)
				break
			}
		}
	}

	if primary < 0 {
		for _, id := range fallbackIDs {
			if idx, ok := byID[id]; ok {
				primary = idx
				break
			}
		}
		if primary < 0 {
			primary = 0
		}
	}
	remove(primary)
	if len(secondary) > AssignmentsPerReport-1 {
		secondary = secondary[:AssignmentsPerReport-1]
	}

	for _, id := range fallbackIDs {
		if len(secondary) >= AssignmentsPerReport-1 {
			break
		}
		idx, ok := byID[id]
		if ok && idx != primary && !contains(idx) {
			secondary = append(secondary, idx)
		}
	}
	for idx := range comps {
		if len(secondary) >= AssignmentsPerReport-1 {
			break
		}
		if idx != primary && !contains(idx) {
			secondary = append(secondary, idx)
		}
	}

	if len(secondary) < AssignmentsPerReport-1 {
		return nil, fmt.Errorf("%w: need %d active competencies, have %d",
			ErrEmptyCatalog, AssignmentsPerReport, len(comps))
	}

	out := make([]Assignment, 0, AssignmentsPerReport)
	out = append(out, Assignment{Competency: comps[primary], Role: RoleStrong, Points: StrongPoints})
	for _, idx := range secondary {
		out = append(out, Assignment{Competency: comps[idx], Role: RoleSub, Points: SubPoints})
	}
	return out, nil
}

// Names returns the competency names of assignments in order.
func Names(as []Assignment) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.Competency.Name
	}
	return out
}
