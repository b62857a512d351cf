// Package badges computes the achievements shown on a student's page.
package badges

import "github.com/google/uuid"

// BalancedCompetencies is how many distinct competencies a student must
// have shown to earn the balance badge.
const BalancedCompetencies = 7

// Progress is what badges are computed from.
type Progress struct {
	TotalReports     int
	CurrentStreak    int
	MaxStreak        int
	CompetencyCounts map[uuid.UUID]int
}

// Badge is an earned achievement.
type Badge struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Earned      bool   `json:"earned"`
}

// Calculate returns the badges earned for p in display order. Streak badges
// look at the best streak, so a broken streak keeps its badges.
func Calculate(p Progress) []Badge {
	earned := map[ID]bool{
		FirstReport: p.TotalReports >= 1,
		Reporter10:  p.TotalReports >= 10,
		Reporter50:  p.TotalReports >= 50,
		Reporter100: p.TotalReports >= 100,
		Streak7:     p.MaxStreak >= 7,
		Streak30:    p.MaxStreak >= 30,
		Balanced:    shownCompetencies(p.CompetencyCounts) >= BalancedCompetencies,
	}

	var out []Badge
	for _, id := range All() {
		if !earned[id] {
			continue
		}
		out = append(out, Badge{
			ID:          id,
			Name:        id.DisplayName(),
			Description: id.Description(),
			Icon:        id.Icon(),
			Earned:      true,
		})
	}
	return out
}

func shownCompetencies(counts map[uuid.UUID]int) int {
	n := 0
	for _, c := range counts {
		if c > 0 {
			n++
		}
	}
	return n
}

// NextStreakMilestone returns the next streak length worth celebrating
// above current.
func NextStreakMilestone(current int) int {
	for _, m := range []int{7, 30} {
		if m > current {
			return m
		}
	}
	// Beyond 30, every further month.
	return ((current / 30) + 1) * 30
}
