package store

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/tankyu/diary/internal/catalog"
)

type catalogRepo struct {
	q dialect.ExecQuerier
}

func (r *catalogRepo) ActiveCompetencies(ctx context.Context) ([]catalog.Competency, error) {
	query, args := sq.Select("id", "name", "description", "display_order", "is_active").
		From(sq.Table("competencies")).
		Where(entsql.EQ("is_active", true)).
		OrderBy("display_order", "id").
		Query()

	var rows entsql.Rows
	if err := r.q.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query competencies: %w", err)
	}
	defer rows.Close()

	var out []catalog.Competency
	for rows.Next() {
		var c catalog.Competency
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.DisplayOrder, &c.Active); err != nil {
			return nil, fmt.Errorf("scan competency: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *catalogRepo) ActivePhases(ctx context.Context) ([]catalog.Phase, error) {
	query, args := sq.Select("id", "name", "display_order", "is_active").
		From(sq.Table("phases")).
		Where(entsql.EQ("is_active", true)).
		OrderBy("display_order", "id").
		Query()

	var rows entsql.Rows
	if err := r.q.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query phases: %w", err)
	}
	defer rows.Close()

	var out []catalog.Phase
	for rows.Next() {
		var p catalog.Phase
		if err := rows.Scan(&p.ID, &p.Name, &p.DisplayOrder, &p.Active); err != nil {
			return nil, fmt.Errorf("scan phase: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *catalogRepo) SeedCompetencies(ctx context.Context, comps []catalog.Competency) (int, error) {
	added := 0
	for _, c := range comps {
		query, args := sq.Insert("competencies").
			Columns("id", "name", "description", "display_order", "is_active").
			Values(c.ID, c.Name, c.Description, c.DisplayOrder, c.Active).
			OnConflict(entsql.ConflictColumns("name"), entsql.DoNothing()).
			Query()
		n, err := execAffected(ctx, r.q, query, args)
		if err != nil {
			return added, fmt.Errorf("seed competency %q: %w", c.Name, err)
		}
		added += int(n)
	}
	return added, nil
}

func (r *catalogRepo) SeedPhases(ctx context.Context, phases []catalog.Phase) (int, error) {
	added := 0
	for _, p := range phases {
		query, args := sq.Insert("phases").
			Columns("id", "name", "display_order", "is_active").
			Values(p.ID, p.Name, p.DisplayOrder, p.Active).
			OnConflict(entsql.ConflictColumns("name"), entsql.DoNothing()).
			Query()
		n, err := execAffected(ctx, r.q, query, args)
		if err != nil {
			return added, fmt.Errorf("seed phase %q: %w", p.Name, err)
		}
		added += int(n)
	}
	return added, nil
}

// execAffected runs a statement and returns the number of affected rows.
func execAffected(ctx context.Context, q dialect.ExecQuerier, query string, args []any) (int64, error) {
	var res sql.Result
	if err := q.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
