package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tankyu/diary/internal/clock"
	"github.com/tankyu/diary/internal/store"
)

// Theme statuses.
const (
	ThemeInProgress = "in_progress"
	ThemeCompleted  = "completed"
)

// NewStudent is a student to register.
type NewStudent struct {
	Name      string
	Grade     int
	ClassName string
}

// CreateStudent registers a student.
func (s *Service) CreateStudent(ctx context.Context, in NewStudent) (*store.Student, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	st := &store.Student{
		ID:        uuid.New(),
		Name:      name,
		Grade:     in.Grade,
		ClassName: in.ClassName,
		CreatedAt: s.now(),
	}
	if err := s.store.Students().CreateStudent(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// CreateTheme starts a theme for the student in the current school year.
func (s *Service) CreateTheme(ctx context.Context, studentID uuid.UUID, title, description string) (*store.Theme, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if _, err := s.student(ctx, studentID); err != nil {
		return nil, err
	}
	now := s.now()
	th := &store.Theme{
		ID:          uuid.New(),
		StudentID:   studentID,
		Title:       title,
		Description: description,
		FiscalYear:  clock.FiscalYear(now),
		Status:      ThemeInProgress,
		CreatedAt:   now,
	}
	if err := s.store.Students().CreateTheme(ctx, th); err != nil {
		return nil, err
	}
	return th, nil
}

// Themes lists the student's themes, latest school year first.
func (s *Service) Themes(ctx context.Context, studentID uuid.UUID) ([]store.Theme, error) {
	if _, err := s.student(ctx, studentID); err != nil {
		return nil, err
	}
	return s.store.Students().ListThemes(ctx, studentID)
}
