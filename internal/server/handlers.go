package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tankyu/diary/internal/clock"
	"github.com/tankyu/diary/internal/competency"
	"github.com/tankyu/diary/internal/report"
	"github.com/tankyu/diary/internal/store"
)

type abilityResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	DisplayOrder int       `json:"display_order"`
}

type phaseResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	DisplayOrder int       `json:"display_order"`
}

type studentRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	Grade     int    `json:"grade" validate:"gte=0,lte=12"`
	ClassName string `json:"class_name" validate:"max=50"`
}

type studentResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Grade     int       `json:"grade"`
	ClassName string    `json:"class_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type themeRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type themeResponse struct {
	ID          uuid.UUID `json:"id"`
	StudentID   uuid.UUID `json:"student_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	FiscalYear  int       `json:"fiscal_year"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type analyzeRequest struct {
	Content   string     `json:"content" validate:"required,max=10000"`
	StudentID *uuid.UUID `json:"student_id"`
	ThemeID   *uuid.UUID `json:"theme_id"`
}

type detectedAbility struct {
	Name   string `json:"name" validate:"required"`
	Role   string `json:"role" validate:"omitempty,oneof=strong sub"`
	Reason string `json:"reason"`
	Score  int    `json:"score" validate:"gte=0,lte=100"`
}

type submitRequest struct {
	ThemeID    uuid.UUID   `json:"theme_id" validate:"required"`
	Content    string      `json:"content" validate:"required,max=10000"`
	PhaseID    *uuid.UUID  `json:"phase_id"`
	AbilityIDs []uuid.UUID `json:"ability_ids"`

	// Filled from an earlier analyze preview.
	DetectedAbilities []detectedAbility `json:"detected_abilities" validate:"dive"`
	DetectedPhase     string            `json:"detected_phase"`
	AIComment         string            `json:"ai_comment"`
}

type updateRequest struct {
	Content    *string     `json:"content" validate:"omitempty,max=10000"`
	PhaseID    *uuid.UUID  `json:"phase_id"`
	ClearPhase bool        `json:"clear_phase"`
	AbilityIDs []uuid.UUID `json:"ability_ids"`
}

func (s *Server) listAbilities(w http.ResponseWriter, r *http.Request) {
	comps, err := s.deps.Catalog.ListActiveCompetencies(r.Context())
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	out := make([]abilityResponse, len(comps))
	for i, c := range comps {
		out[i] = abilityResponse{ID: c.ID, Name: c.Name, Description: c.Description, DisplayOrder: c.DisplayOrder}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) listPhases(w http.ResponseWriter, r *http.Request) {
	phases, err := s.deps.Catalog.ListActivePhases(r.Context())
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	out := make([]phaseResponse, len(phases))
	for i, p := range phases {
		out[i] = phaseResponse{ID: p.ID, Name: p.Name, DisplayOrder: p.DisplayOrder}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) fiscalYear(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]int{"fiscal_year": clock.FiscalYear(time.Now())})
}

func (s *Server) createStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, s.log, err)
		return
	}
	st, err := s.deps.Reports.CreateStudent(r.Context(), report.NewStudent{
		Name:      req.Name,
		Grade:     req.Grade,
		ClassName: req.ClassName,
	})
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, studentResponse{
		ID:        st.ID,
		Name:      st.Name,
		Grade:     st.Grade,
		ClassName: st.ClassName,
		CreatedAt: st.CreatedAt,
	})
}

func (s *Server) createTheme(w http.ResponseWriter, r *http.Request) {
	studentID, err := pathUUID(r, "studentID")
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	var req themeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, s.log, err)
		return
	}
	th, err := s.deps.Reports.CreateTheme(r.Context(), studentID, req.Title, req.Description)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, toThemeResponse(*th))
}

func (s *Server) listThemes(w http.ResponseWriter, r *http.Request) {
	studentID, err := pathUUID(r, "studentID")
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	themes, err := s.deps.Reports.Themes(r.Context(), studentID)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	out := make([]themeResponse, len(themes))
	for i, th := range themes {
		out[i] = toThemeResponse(th)
	}
	respondJSON(w, http.StatusOK, out)
}

func toThemeResponse(th store.Theme) themeResponse {
	return themeResponse{
		ID:          th.ID,
		StudentID:   th.StudentID,
		Title:       th.Title,
		Description: th.Description,
		FiscalYear:  th.FiscalYear,
		Status:      th.Status,
		CreatedAt:   th.CreatedAt,
	}
}

func (s *Server) analyzeReport(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, s.log, err)
		return
	}
	cls, err := s.deps.Reports.Preview(r.Context(), report.PreviewInput{
		Content:   req.Content,
		StudentID: req.StudentID,
		ThemeID:   req.ThemeID,
	})
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, cls)
}

func (s *Server) submitReport(w http.ResponseWriter, r *http.Request) {
	studentID, err := pathUUID(r, "studentID")
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, s.log, err)
		return
	}

	in := report.SubmitInput{
		StudentID:     studentID,
		ThemeID:       req.ThemeID,
		Content:       req.Content,
		PhaseID:       req.PhaseID,
		CompetencyIDs: req.AbilityIDs,
		DetectedPhase: req.DetectedPhase,
		AIComment:     req.AIComment,
	}
	for _, d := range req.DetectedAbilities {
		in.Detected = append(in.Detected, competency.Candidate{
			Name:   d.Name,
			Reason: d.Reason,
			Role:   competency.Role(d.Role),
			Score:  d.Score,
		})
	}

	out, err := s.deps.Reports.Submit(r.Context(), in)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, out)
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	studentID, err := pathUUID(r, "studentID")
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	opts, err := listOpts(r)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	reports, err := s.deps.Reports.List(r.Context(), studentID, opts)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	studentID, reportID, err := reportPath(r)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	rep, err := s.deps.Reports.Get(r.Context(), studentID, reportID)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

func (s *Server) updateReport(w http.ResponseWriter, r *http.Request) {
	studentID, reportID, err := reportPath(r)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	var req updateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, s.log, err)
		return
	}

	in := report.UpdateInput{Content: req.Content, PhaseID: req.PhaseID, CompetencyIDs: req.AbilityIDs}
	if req.ClearPhase {
		none := uuid.Nil
		in.PhaseID = &none
	}
	rep, err := s.deps.Reports.Update(r.Context(), studentID, reportID, in)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

func (s *Server) deleteReport(w http.ResponseWriter, r *http.Request) {
	studentID, reportID, err := reportPath(r)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	if err := s.deps.Reports.Delete(r.Context(), studentID, reportID); err != nil {
		respondError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getStreak(w http.ResponseWriter, r *http.Request) {
	studentID, err := pathUUID(r, "studentID")
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	st, err := s.deps.Reports.Streak(r.Context(), studentID)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (s *Server) getSummary(w http.ResponseWriter, r *http.Request) {
	studentID, err := pathUUID(r, "studentID")
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	sum, err := s.deps.Reports.Summary(r.Context(), studentID)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, sum)
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, badRequest("INVALID_ID", name+" is not a valid UUID")
	}
	return id, nil
}

func reportPath(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	studentID, err := pathUUID(r, "studentID")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	reportID, err := pathUUID(r, "reportID")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return studentID, reportID, nil
}

func listOpts(r *http.Request) (store.ListOpts, error) {
	var opts store.ListOpts
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			return opts, badRequest("INVALID_QUERY", "limit must be between 1 and 200")
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, badRequest("INVALID_QUERY", "offset must not be negative")
		}
		opts.Offset = n
	}
	return opts, nil
}
