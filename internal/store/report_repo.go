package store

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// defaultListLimit applies when ListOpts.Limit is not positive.
const defaultListLimit = 50

type reportRepo struct {
	q dialect.ExecQuerier
}

func (r *reportRepo) Insert(ctx context.Context, rep *Report) error {
	query, args := sq.Insert("reports").
		Columns("id", "student_id", "theme_id", "phase_id", "content", "ai_comment",
			"reported_at", "created_at", "updated_at").
		Values(rep.ID, rep.StudentID, rep.ThemeID, rep.PhaseID, rep.Content, rep.AIComment,
			formatTime(rep.ReportedAt), formatTime(rep.CreatedAt), formatTime(rep.UpdatedAt)).
		Query()
	if err := r.q.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return r.insertCompetencies(ctx, rep.ID, rep.Competencies)
}

func (r *reportRepo) Update(ctx context.Context, rep *Report) error {
	query, args := sq.Update("reports").
		Set("content", rep.Content).
		Set("phase_id", rep.PhaseID).
		Set("ai_comment", rep.AIComment).
		Set("updated_at", formatTime(rep.UpdatedAt)).
		Where(entsql.EQ("id", rep.ID)).
		Query()
	n, err := execAffected(ctx, r.q, query, args)
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *reportRepo) ReplaceCompetencies(ctx context.Context, reportID uuid.UUID, comps []ReportCompetency) error {
	query, args := sq.Delete("report_competencies").
		Where(entsql.EQ("report_id", reportID)).
		Query()
	if err := r.q.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("delete report competencies: %w", err)
	}
	return r.insertCompetencies(ctx, reportID, comps)
}

func (r *reportRepo) insertCompetencies(ctx context.Context, reportID uuid.UUID, comps []ReportCompetency) error {
	if len(comps) == 0 {
		return nil
	}
	ins := sq.Insert("report_competencies").Columns("report_id", "competency_id", "role", "points")
	for _, c := range comps {
		ins.Values(reportID, c.CompetencyID, c.Role, c.Points)
	}
	query, args := ins.Query()
	if err := r.q.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("insert report competencies: %w", err)
	}
	return nil
}

// reportSelector selects report columns joined with the phase name.
func reportSelector() (*entsql.Selector, *entsql.SelectTable) {
	rt := sq.Table("reports").As("r")
	pt := sq.Table("phases").As("p")
	sel := sq.Select(
		rt.C("id"), rt.C("student_id"), rt.C("theme_id"), rt.C("phase_id"), pt.C("name"),
		rt.C("content"), rt.C("ai_comment"), rt.C("reported_at"), rt.C("created_at"), rt.C("updated_at"),
	).
		From(rt).
		LeftJoin(pt).On(rt.C("phase_id"), pt.C("id"))
	return sel, rt
}

func (r *reportRepo) Get(ctx context.Context, id uuid.UUID) (*Report, error) {
	sel, rt := reportSelector()
	query, args := sel.Where(entsql.EQ(rt.C("id"), id)).Query()

	reports, err := r.queryReports(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, ErrNotFound
	}
	return &reports[0], nil
}

func (r *reportRepo) List(ctx context.Context, studentID uuid.UUID, opts ListOpts) ([]Report, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	sel, rt := reportSelector()
	sel.Where(entsql.EQ(rt.C("student_id"), studentID)).
		OrderBy(entsql.Desc(rt.C("reported_at")), entsql.Desc(rt.C("created_at"))).
		Limit(limit)
	if opts.Offset > 0 {
		sel.Offset(opts.Offset)
	}
	query, args := sel.Query()
	return r.queryReports(ctx, query, args)
}

func (r *reportRepo) queryReports(ctx context.Context, query string, args []any) ([]Report, error) {
	var rows entsql.Rows
	if err := r.q.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}

	var out []Report
	for rows.Next() {
		var (
			rep                        Report
			phaseName                  sql.NullString
			reported, created, updated string
		)
		if err := rows.Scan(&rep.ID, &rep.StudentID, &rep.ThemeID, &rep.PhaseID, &phaseName,
			&rep.Content, &rep.AIComment, &reported, &created, &updated); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan report: %w", err)
		}
		rep.PhaseName = phaseName.String
		var err error
		if rep.ReportedAt, err = parseTime(reported); err == nil {
			if rep.CreatedAt, err = parseTime(created); err == nil {
				rep.UpdatedAt, err = parseTime(updated)
			}
		}
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("parse report timestamps: %w", err)
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// Release the connection before the follow-up query.
	rows.Close()

	if err := r.loadCompetencies(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reportRepo) loadCompetencies(ctx context.Context, reports []Report) error {
	if len(reports) == 0 {
		return nil
	}
	ids := make([]any, len(reports))
	index := make(map[uuid.UUID]int, len(reports))
	for i, rep := range reports {
		ids[i] = rep.ID
		index[rep.ID] = i
	}

	rc := sq.Table("report_competencies").As("rc")
	ct := sq.Table("competencies").As("c")
	query, args := sq.Select(rc.C("report_id"), rc.C("competency_id"), ct.C("name"), rc.C("role"), rc.C("points")).
		From(rc).
		Join(ct).On(rc.C("competency_id"), ct.C("id")).
		Where(entsql.In(rc.C("report_id"), ids...)).
		OrderBy(entsql.Desc(rc.C("points")), ct.C("display_order"), ct.C("id")).
		Query()

	var rows entsql.Rows
	if err := r.q.Query(ctx, query, args, &rows); err != nil {
		return fmt.Errorf("query report competencies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			reportID uuid.UUID
			c        ReportCompetency
		)
		if err := rows.Scan(&reportID, &c.CompetencyID, &c.Name, &c.Role, &c.Points); err != nil {
			return fmt.Errorf("scan report competency: %w", err)
		}
		i := index[reportID]
		reports[i].Competencies = append(reports[i].Competencies, c)
	}
	return rows.Err()
}

func (r *reportRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query, args := sq.Delete("reports").Where(entsql.EQ("id", id)).Query()
	n, err := execAffected(ctx, r.q, query, args)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *reportRepo) Count(ctx context.Context, studentID uuid.UUID) (int, error) {
	query, args := sq.Select(entsql.Count("*")).
		From(sq.Table("reports")).
		Where(entsql.EQ("student_id", studentID)).
		Query()

	var rows entsql.Rows
	if err := r.q.Query(ctx, query, args, &rows); err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	defer rows.Close()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("scan count: %w", err)
		}
	}
	return n, rows.Err()
}

func (r *reportRepo) CompetencyCounts(ctx context.Context, studentID uuid.UUID) (map[uuid.UUID]int, error) {
	rc := sq.Table("report_competencies").As("rc")
	rt := sq.Table("reports").As("r")
	query, args := sq.Select(rc.C("competency_id"), entsql.Count("*")).
		From(rc).
		Join(rt).On(rc.C("report_id"), rt.C("id")).
		Where(entsql.EQ(rt.C("student_id"), studentID)).
		GroupBy(rc.C("competency_id")).
		Query()

	var rows entsql.Rows
	if err := r.q.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("count competencies: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			id uuid.UUID
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan competency count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
