package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

type studentRepo struct {
	q dialect.ExecQuerier
}

func (r *studentRepo) CreateStudent(ctx context.Context, s *Student) error {
	query, args := sq.Insert("students").
		Columns("id", "name", "grade", "class_name", "created_at").
		Values(s.ID, s.Name, s.Grade, s.ClassName, formatTime(s.CreatedAt)).
		Query()
	if err := r.q.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

func (r *studentRepo) GetStudent(ctx context.Context, id uuid.UUID) (*Student, error) {
	query, args := sq.Select("id", "name", "grade", "class_name", "created_at").
		From(sq.Table("students")).
		Where(entsql.EQ("id", id)).
		Query()

	var rows entsql.Rows
	if err := r.q.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query student: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	var (
		s       Student
		created string
	)
	if err := rows.Scan(&s.ID, &s.Name, &s.Grade, &s.ClassName, &created); err != nil {
		return nil, fmt.Errorf("scan student: %w", err)
	}
	var err error
	if s.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &s, nil
}

func (r *studentRepo) CreateTheme(ctx context.Context, th *Theme) error {
	query, args := sq.Insert("themes").
		Columns("id", "student_id", "title", "description", "fiscal_year", "status", "created_at").
		Values(th.ID, th.StudentID, th.Title, th.Description, th.FiscalYear, th.Status, formatTime(th.CreatedAt)).
		Query()
	if err := r.q.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("insert theme: %w", err)
	}
	return nil
}

func (r *studentRepo) GetTheme(ctx context.Context, id uuid.UUID) (*Theme, error) {
	themes, err := r.themes(ctx, entsql.EQ("id", id))
	if err != nil {
		return nil, err
	}
	if len(themes) == 0 {
		return nil, ErrNotFound
	}
	return &themes[0], nil
}

func (r *studentRepo) ListThemes(ctx context.Context, studentID uuid.UUID) ([]Theme, error) {
	return r.themes(ctx, entsql.EQ("student_id", studentID))
}

func (r *studentRepo) themes(ctx context.Context, where *entsql.Predicate) ([]Theme, error) {
	query, args := sq.Select("id", "student_id", "title", "description", "fiscal_year", "status", "created_at").
		From(sq.Table("themes")).
		Where(where).
		OrderBy(entsql.Desc("fiscal_year"), "created_at").
		Query()

	var rows entsql.Rows
	if err := r.q.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query themes: %w", err)
	}
	defer rows.Close()

	var out []Theme
	for rows.Next() {
		var (
			th      Theme
			created string
		)
		if err := rows.Scan(&th.ID, &th.StudentID, &th.Title, &th.Description, &th.FiscalYear, &th.Status, &created); err != nil {
			return nil, fmt.Errorf("scan theme: %w", err)
		}
		var err error
		if th.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		out = append(out, th)
	}
	return out, rows.Err()
}
