// Package competency turns classifier output into the three weighted
// competency assignments every report carries.
package competency

import "github.com/tankyu/diary/internal/catalog"

// Role distinguishes the primary competency of a report from the
// supporting ones.
type Role string

const (
	RoleStrong Role = "strong"
	RoleSub    Role = "sub"
)

// Points awarded per role.
const (
	StrongPoints = 2
	SubPoints    = 1
)

// Classifier scores attached to candidates.
const (
	StrongScore = 80
	SubScore    = 60
)

// Points returns the points a role is worth.
func (r Role) Points() int {
	if r == RoleStrong {
		return StrongPoints
	}
	return SubPoints
}

// Candidate is one raw classifier judgment. Candidates are not deduplicated,
// may reference unknown names and come in any number.
type Candidate struct {
	Name   string `json:"name"`
	Reason string `json:"reason,omitempty"`
	Role   Role   `json:"role"`
	Score  int    `json:"score,omitempty"`
}

// Assignment attaches a competency to a report with its role and points.
type Assignment struct {
	Competency catalog.Competency
	Role       Role
	Points     int
}
