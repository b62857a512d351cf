// Package report files diary reports: it classifies them, assigns their
// three competencies, and keeps the student's streak in step.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tankyu/diary/internal/analysis"
	"github.com/tankyu/diary/internal/badges"
	"github.com/tankyu/diary/internal/catalog"
	"github.com/tankyu/diary/internal/clock"
	"github.com/tankyu/diary/internal/competency"
	"github.com/tankyu/diary/internal/logger"
	"github.com/tankyu/diary/internal/store"
	"github.com/tankyu/diary/internal/streak"
)

// SourceClient marks a classification supplied by the client from an
// earlier analyze preview.
const SourceClient = "client"

// Service is the diary's report workflow.
type Service struct {
	store    *store.Store
	catalog  *catalog.Catalog
	analyzer *analysis.Analyzer
	streaks  *streak.Service
	log      *logger.Logger
	now      func() time.Time
}

// NewService wires a report service.
func NewService(st *store.Store, cat *catalog.Catalog, an *analysis.Analyzer, streaks *streak.Service, log *logger.Logger) *Service {
	return &Service{
		store:    st,
		catalog:  cat,
		analyzer: an,
		streaks:  streaks,
		log:      log,
		now:      time.Now,
	}
}

// Classify analyzes a report and normalizes the result to exactly three
// competencies. Only a missing catalog makes it fail; oracle trouble is
// absorbed by the heuristic.
func (s *Service) Classify(ctx context.Context, content, themeTitle, studentName string) (*Classification, error) {
	res, err := s.analyzer.Analyze(ctx, analysis.Input{
		Content:     content,
		ThemeTitle:  themeTitle,
		StudentName: studentName,
	})
	if err != nil {
		return nil, err
	}
	return s.normalize(ctx, res.Phase, res.Candidates, nil, res.Comment, res.Source)
}

func (s *Service) normalize(ctx context.Context, phaseName string, cands []competency.Candidate, fallbackIDs []uuid.UUID, comment, source string) (*Classification, error) {
	comps, err := s.catalog.ListActiveCompetencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("load competencies: %w", err)
	}
	as, err := competency.Normalize(cands, comps, fallbackIDs)
	if err != nil {
		return nil, err
	}

	out := &Classification{
		Competencies: assigned(as),
		Detected:     cands,
		Comment:      comment,
		Source:       source,
	}
	if phaseName != "" {
		phase, ok, err := s.catalog.PhaseByName(ctx, phaseName)
		if err != nil {
			return nil, fmt.Errorf("resolve phase: %w", err)
		}
		if ok {
			out.Phase = phase.Name
			out.PhaseID = &phase.ID
		} else {
			s.log.Debug("detected phase is not in the catalog", "phase", phaseName)
		}
	}
	return out, nil
}

// PreviewInput is a report to analyze without storing it. StudentID and
// ThemeID only personalize the prompt and comment; unknown ids are ignored.
type PreviewInput struct {
	Content   string
	StudentID *uuid.UUID
	ThemeID   *uuid.UUID
}

// Preview classifies a draft so the student can review the suggestion
// before submitting.
func (s *Service) Preview(ctx context.Context, in PreviewInput) (*Classification, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	var themeTitle, studentName string
	if in.StudentID != nil {
		if st, err := s.store.Students().GetStudent(ctx, *in.StudentID); err == nil {
			studentName = st.Name
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("get student: %w", err)
		}
	}
	if in.ThemeID != nil {
		if th, err := s.store.Students().GetTheme(ctx, *in.ThemeID); err == nil {
			themeTitle = th.Title
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("get theme: %w", err)
		}
	}
	return s.Classify(ctx, content, themeTitle, studentName)
}

// Submit stores a new report with its competencies and advances the
// student's streak. The report row, its competencies, and the streak are
// written in one transaction after classification has finished.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Submitted, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	student, err := s.student(ctx, in.StudentID)
	if err != nil {
		return nil, err
	}
	theme, err := s.theme(ctx, in.StudentID, in.ThemeID)
	if err != nil {
		return nil, err
	}
	if in.PhaseID != nil {
		if err := s.checkPhase(ctx, *in.PhaseID); err != nil {
			return nil, err
		}
	}

	var cls *Classification
	if len(in.Detected) > 0 {
		comment := strings.TrimSpace(in.AIComment)
		if comment == "" {
			comment = analysis.TemplateComment(student.Name, in.DetectedPhase, in.Detected)
		}
		cls, err = s.normalize(ctx, in.DetectedPhase, in.Detected, in.CompetencyIDs, comment, SourceClient)
	} else {
		var res *analysis.Result
		res, err = s.analyzer.Analyze(ctx, analysis.Input{
			Content:     content,
			ThemeTitle:  theme.Title,
			StudentName: student.Name,
		})
		if err == nil {
			cls, err = s.normalize(ctx, res.Phase, res.Candidates, in.CompetencyIDs, res.Comment, res.Source)
		}
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	rec := &store.Report{
		ID:           uuid.New(),
		StudentID:    student.ID,
		ThemeID:      theme.ID,
		Content:      content,
		AIComment:    cls.Comment,
		ReportedAt:   now,
		CreatedAt:    now,
		UpdatedAt:    now,
		Competencies: toStoreCompetencies(competencyAssignments(cls)),
	}
	switch {
	case in.PhaseID != nil:
		rec.PhaseID = uuid.NullUUID{UUID: *in.PhaseID, Valid: true}
	case cls.PhaseID != nil:
		rec.PhaseID = uuid.NullUUID{UUID: *cls.PhaseID, Valid: true}
	}

	st, err := s.streaks.RecordReportTx(ctx, student.ID, clock.DateOf(now), func(tx *store.Tx) error {
		return tx.Reports().Insert(ctx, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("store report: %w", err)
	}

	s.log.Info("report submitted",
		"report_id", rec.ID, "student_id", student.ID, "source", cls.Source,
		"strong", cls.Competencies[0].Name, "streak", st.Current)

	stored, err := s.store.Reports().Get(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("reload report: %w", err)
	}
	return &Submitted{Report: fromStore(stored), Streak: st, Source: cls.Source}, nil
}

// competencyAssignments converts a classification back into assignments
// for storage.
func competencyAssignments(cls *Classification) []competency.Assignment {
	out := make([]competency.Assignment, len(cls.Competencies))
	for i, c := range cls.Competencies {
		out[i] = competency.Assignment{
			Competency: catalog.Competency{ID: c.ID, Name: c.Name},
			Role:       c.Role,
			Points:     c.Points,
		}
	}
	return out
}

// Update edits a report. Changing competencies replaces all three
// assignments at once.
func (s *Service) Update(ctx context.Context, studentID, reportID uuid.UUID, in UpdateInput) (*Report, error) {
	rec, err := s.report(ctx, studentID, reportID)
	if err != nil {
		return nil, err
	}

	if in.Content != nil {
		c := strings.TrimSpace(*in.Content)
		if c == "" {
			return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
		}
		rec.Content = c
	}
	if in.PhaseID != nil {
		if *in.PhaseID == uuid.Nil {
			rec.PhaseID = uuid.NullUUID{}
		} else {
			if err := s.checkPhase(ctx, *in.PhaseID); err != nil {
				return nil, err
			}
			rec.PhaseID = uuid.NullUUID{UUID: *in.PhaseID, Valid: true}
		}
	}

	var replacement []store.ReportCompetency
	if in.CompetencyIDs != nil {
		comps, err := s.catalog.ListActiveCompetencies(ctx)
		if err != nil {
			return nil, fmt.Errorf("load competencies: %w", err)
		}
		as, err := competency.Normalize(nil, comps, in.CompetencyIDs)
		if err != nil {
			return nil, err
		}
		replacement = toStoreCompetencies(as)
	}

	rec.UpdatedAt = s.now()
	err = s.store.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.Reports().Update(ctx, rec); err != nil {
			return err
		}
		if replacement != nil {
			return tx.Reports().ReplaceCompetencies(ctx, rec.ID, replacement)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update report: %w", err)
	}

	return s.Get(ctx, studentID, reportID)
}

// Get returns one of the student's reports.
func (s *Service) Get(ctx context.Context, studentID, reportID uuid.UUID) (*Report, error) {
	rec, err := s.report(ctx, studentID, reportID)
	if err != nil {
		return nil, err
	}
	return fromStore(rec), nil
}

// List returns the student's reports newest first.
func (s *Service) List(ctx context.Context, studentID uuid.UUID, opts store.ListOpts) ([]*Report, error) {
	if _, err := s.student(ctx, studentID); err != nil {
		return nil, err
	}
	recs, err := s.store.Reports().List(ctx, studentID, opts)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	out := make([]*Report, len(recs))
	for i := range recs {
		out[i] = fromStore(&recs[i])
	}
	return out, nil
}

// Delete removes a report and its competencies. The streak is left as is.
func (s *Service) Delete(ctx context.Context, studentID, reportID uuid.UUID) error {
	if _, err := s.report(ctx, studentID, reportID); err != nil {
		return err
	}
	if err := s.store.Reports().Delete(ctx, reportID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: report %s", ErrNotFound, reportID)
		}
		return fmt.Errorf("delete report: %w", err)
	}
	return nil
}

// Streak returns the student's streak, zero if they never reported.
func (s *Service) Streak(ctx context.Context, studentID uuid.UUID) (streak.State, error) {
	if _, err := s.student(ctx, studentID); err != nil {
		return streak.State{}, err
	}
	return s.streaks.Get(ctx, studentID)
}

// Summary gathers the student's totals, streak, and earned badges.
func (s *Service) Summary(ctx context.Context, studentID uuid.UUID) (*Summary, error) {
	st, err := s.Streak(ctx, studentID)
	if err != nil {
		return nil, err
	}
	total, err := s.store.Reports().Count(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}
	counts, err := s.store.Reports().CompetencyCounts(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("count competencies: %w", err)
	}
	comps, err := s.catalog.ListActiveCompetencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("load competencies: %w", err)
	}

	out := &Summary{
		TotalReports:        total,
		Streak:              st,
		NextStreakMilestone: badges.NextStreakMilestone(st.Current),
		Badges: badges.Calculate(badges.Progress{
			TotalReports:     total,
			CurrentStreak:    st.Current,
			MaxStreak:        st.Max,
			CompetencyCounts: counts,
		}),
	}
	for _, c := range comps {
		out.Competencies = append(out.Competencies, CompetencyCount{ID: c.ID, Name: c.Name, Count: counts[c.ID]})
	}
	return out, nil
}

func (s *Service) student(ctx context.Context, id uuid.UUID) (*store.Student, error) {
	st, err := s.store.Students().GetStudent(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: student %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	return st, nil
}

func (s *Service) theme(ctx context.Context, studentID, themeID uuid.UUID) (*store.Theme, error) {
	th, err := s.store.Students().GetTheme(ctx, themeID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && th.StudentID != studentID) {
		return nil, fmt.Errorf("%w: theme %s", ErrNotFound, themeID)
	}
	if err != nil {
		return nil, fmt.Errorf("get theme: %w", err)
	}
	return th, nil
}

func (s *Service) report(ctx context.Context, studentID, reportID uuid.UUID) (*store.Report, error) {
	rec, err := s.store.Reports().Get(ctx, reportID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && rec.StudentID != studentID) {
		return nil, fmt.Errorf("%w: report %s", ErrNotFound, reportID)
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return rec, nil
}

func (s *Service) checkPhase(ctx context.Context, id uuid.UUID) error {
	phases, err := s.catalog.ListActivePhases(ctx)
	if err != nil {
		return fmt.Errorf("load phases: %w", err)
	}
	for _, p := range phases {
		if p.ID == id {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown phase %s", ErrInvalidInput, id)
}
