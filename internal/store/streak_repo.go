package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/tankyu/diary/internal/clock"
)

type streakRepo struct {
	q dialect.ExecQuerier
}

func (r *streakRepo) Get(ctx context.Context, studentID uuid.UUID) (StreakRow, bool, error) {
	row := StreakRow{StudentID: studentID}

	query, args := sq.Select("current_streak", "max_streak", "last_report_date").
		From(sq.Table("streaks")).
		Where(entsql.EQ("student_id", studentID)).
		Query()

	var rows entsql.Rows
	if err := r.q.Query(ctx, query, args, &rows); err != nil {
		return row, false, fmt.Errorf("query streak: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return row, false, rows.Err()
	}
	var last sql.NullString
	if err := rows.Scan(&row.Current, &row.Max, &last); err != nil {
		return row, false, fmt.Errorf("scan streak: %w", err)
	}
	if last.Valid {
		d, err := clock.ParseDate(last.String)
		if err != nil {
			return row, false, fmt.Errorf("parse last_report_date: %w", err)
		}
		row.LastReportDate = &d
	}
	return row, true, nil
}

func (r *streakRepo) Put(ctx context.Context, row StreakRow) error {
	var last sql.NullString
	if row.LastReportDate != nil {
		last = sql.NullString{String: clock.FormatDate(*row.LastReportDate), Valid: true}
	}
	query, args := sq.Insert("streaks").
		Columns("student_id", "current_streak", "max_streak", "last_report_date", "updated_at").
		Values(row.StudentID, row.Current, row.Max, last, formatTime(time.Now())).
		OnConflict(entsql.ConflictColumns("student_id"), entsql.ResolveWithNewValues()).
		Query()
	if err := r.q.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("upsert streak: %w", err)
	}
	return nil
}
