package store

import (
	"context"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/tankyu/diary/internal/catalog"
)

// sq builds SQLite statements. DialectBuilder holds no state, so it is
// shared by every repository.
var sq = entsql.Dialect(dialect.SQLite)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact purpose match when set
}

// ListOpts paginates report listings.
type ListOpts struct {
	Limit  int
	Offset int
}

// CatalogRepo reads and seeds the competency and phase master data.
type CatalogRepo interface {
	catalog.Source

	// SeedCompetencies inserts competencies whose name is not present yet
	// and returns how many were added.
	SeedCompetencies(ctx context.Context, comps []catalog.Competency) (int, error)

	// SeedPhases inserts phases whose name is not present yet.
	SeedPhases(ctx context.Context, phases []catalog.Phase) (int, error)
}

// Student is a pupil keeping a diary.
type Student struct {
	ID        uuid.UUID
	Name      string
	Grade     int
	ClassName string
	CreatedAt time.Time
}

// Theme is a student's inquiry subject for one school year.
type Theme struct {
	ID          uuid.UUID
	StudentID   uuid.UUID
	Title       string
	Description string
	FiscalYear  int
	Status      string
	CreatedAt   time.Time
}

// StudentRepo manages students and their themes.
type StudentRepo interface {
	CreateStudent(ctx context.Context, s *Student) error
	GetStudent(ctx context.Context, id uuid.UUID) (*Student, error)
	CreateTheme(ctx context.Context, th *Theme) error
	GetTheme(ctx context.Context, id uuid.UUID) (*Theme, error)
	ListThemes(ctx context.Context, studentID uuid.UUID) ([]Theme, error)
}

// ReportCompetency is one competency attached to a report.
type ReportCompetency struct {
	CompetencyID uuid.UUID
	Name         string // filled on read
	Role         string
	Points       int
}

// Report is a stored diary entry with its competency assignments.
type Report struct {
	ID           uuid.UUID
	StudentID    uuid.UUID
	ThemeID      uuid.UUID
	PhaseID      uuid.NullUUID
	PhaseName    string // filled on read
	Content      string
	AIComment    string
	ReportedAt   time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Competencies []ReportCompetency
}

// ReportRepo manages reports. Competency assignments of a report are only
// ever replaced as a whole.
type ReportRepo interface {
	// Insert stores the report and its competencies.
	Insert(ctx context.Context, r *Report) error

	// Update rewrites content, phase, and comment of an existing report.
	Update(ctx context.Context, r *Report) error

	// ReplaceCompetencies deletes all assignments of the report and inserts
	// comps in their place.
	ReplaceCompetencies(ctx context.Context, reportID uuid.UUID, comps []ReportCompetency) error

	Get(ctx context.Context, id uuid.UUID) (*Report, error)

	// List returns a student's reports newest first.
	List(ctx context.Context, studentID uuid.UUID, opts ListOpts) ([]Report, error)

	Delete(ctx context.Context, id uuid.UUID) error

	// Count returns how many reports the student has written.
	Count(ctx context.Context, studentID uuid.UUID) (int, error)

	// CompetencyCounts returns, per competency, how many of the student's
	// reports it was assigned to.
	CompetencyCounts(ctx context.Context, studentID uuid.UUID) (map[uuid.UUID]int, error)
}

// StreakRow is the persisted streak of one student.
type StreakRow struct {
	StudentID      uuid.UUID
	Current        int
	Max            int
	LastReportDate *time.Time // civil date, nil before the first report
}

// StreakRepo reads and writes streak rows.
type StreakRepo interface {
	// Get returns the student's streak and whether a row exists.
	Get(ctx context.Context, studentID uuid.UUID) (StreakRow, bool, error)

	// Put inserts or replaces the student's streak.
	Put(ctx context.Context, row StreakRow) error
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates LLM usage for one purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns the event with the given ID, or nil if none exists.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
}
