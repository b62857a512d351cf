package report

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tankyu/diary/internal/badges"
	"github.com/tankyu/diary/internal/competency"
	"github.com/tankyu/diary/internal/store"
	"github.com/tankyu/diary/internal/streak"
)

var (
	// ErrNotFound reports a missing student, theme, or report, or one that
	// belongs to another student.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput reports a request that can never succeed as sent.
	ErrInvalidInput = errors.New("invalid input")
)

// AssignedCompetency is one of the three competencies of a report.
type AssignedCompetency struct {
	ID     uuid.UUID       `json:"id"`
	Name   string          `json:"name"`
	Role   competency.Role `json:"role"`
	Points int             `json:"points"`
}

// Classification is the analysis of a report before it is stored.
type Classification struct {
	Phase        string                 `json:"suggested_phase,omitempty"`
	PhaseID      *uuid.UUID             `json:"suggested_phase_id,omitempty"`
	Competencies []AssignedCompetency   `json:"competencies"`
	Detected     []competency.Candidate `json:"detected"`
	Comment      string                 `json:"ai_comment"`
	Source       string                 `json:"source"`
}

// Report is a stored diary entry.
type Report struct {
	ID           uuid.UUID            `json:"id"`
	StudentID    uuid.UUID            `json:"student_id"`
	ThemeID      uuid.UUID            `json:"theme_id"`
	PhaseID      *uuid.UUID           `json:"phase_id,omitempty"`
	PhaseName    string               `json:"phase,omitempty"`
	Content      string               `json:"content"`
	AIComment    string               `json:"ai_comment"`
	Competencies []AssignedCompetency `json:"competencies"`
	ReportedAt   time.Time            `json:"reported_at"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// Submitted is a newly stored report with the streak it produced.
type Submitted struct {
	Report *Report      `json:"report"`
	Streak streak.State `json:"streak"`
	Source string       `json:"source"`
}

// SubmitInput is a report as filed by a student.
type SubmitInput struct {
	StudentID uuid.UUID
	ThemeID   uuid.UUID
	Content   string

	// PhaseID is the phase the student picked. It wins over any detected one.
	PhaseID *uuid.UUID

	// CompetencyIDs are competencies the student picked. They fill slots the
	// classification leaves open, in order.
	CompetencyIDs []uuid.UUID

	// Detected carries a classification the client already obtained from
	// the analyze preview. When set, the oracle is not consulted again and
	// DetectedPhase and AIComment are taken as given.
	Detected      []competency.Candidate
	DetectedPhase string
	AIComment     string
}

// UpdateInput changes a stored report. Nil fields are left alone.
type UpdateInput struct {
	Content *string

	// PhaseID replaces the phase; uuid.Nil clears it.
	PhaseID *uuid.UUID

	// CompetencyIDs, when non-nil, replace the assignments: the first ID
	// becomes strong and the next two sub, topped up from the catalog.
	CompetencyIDs []uuid.UUID
}

// Summary is a student's achievements page.
type Summary struct {
	TotalReports        int               `json:"total_reports"`
	Streak              streak.State      `json:"streak"`
	NextStreakMilestone int               `json:"next_streak_milestone"`
	Badges              []badges.Badge    `json:"badges"`
	Competencies        []CompetencyCount `json:"competencies"`
}

// CompetencyCount is how often a competency was assigned to a student.
type CompetencyCount struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Count int       `json:"count"`
}

func fromStore(r *store.Report) *Report {
	out := &Report{
		ID:         r.ID,
		StudentID:  r.StudentID,
		ThemeID:    r.ThemeID,
		PhaseName:  r.PhaseName,
		Content:    r.Content,
		AIComment:  r.AIComment,
		ReportedAt: r.ReportedAt,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.PhaseID.Valid {
		id := r.PhaseID.UUID
		out.PhaseID = &id
	}
	out.Competencies = make([]AssignedCompetency, len(r.Competencies))
	for i, c := range r.Competencies {
		out.Competencies[i] = AssignedCompetency{
			ID:     c.CompetencyID,
			Name:   c.Name,
			Role:   competency.Role(c.Role),
			Points: c.Points,
		}
	}
	return out
}

func toStoreCompetencies(as []competency.Assignment) []store.ReportCompetency {
	out := make([]store.ReportCompetency, len(as))
	for i, a := range as {
		out[i] = store.ReportCompetency{
			CompetencyID: a.Competency.ID,
			Name:         a.Competency.Name,
			Role:         string(a.Role),
			Points:       a.Points,
		}
	}
	return out
}

func assigned(as []competency.Assignment) []AssignedCompetency {
	out := make([]AssignedCompetency, len(as))
	for i, a := range as {
		out[i] = AssignedCompetency{ID: a.Competency.ID, Name: a.Competency.Name, Role: a.Role, Points: a.Points}
	}
	return out
}
