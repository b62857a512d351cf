package streak

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tankyu/diary/internal/logger"
	"github.com/tankyu/diary/internal/store"
)

// Transactor runs a function inside a store transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx *store.Tx) error) error
	Streaks() store.StreakRepo
}

// Service persists streaks. Updates for one student are serialized, so two
// reports filed at the same moment cannot both extend the streak.
type Service struct {
	db    Transactor
	locks *keyedMutex[uuid.UUID]
	log   *logger.Logger
}

// NewService creates a streak service.
func NewService(db Transactor, log *logger.Logger) *Service {
	return &Service{db: db, locks: newKeyedMutex[uuid.UUID](), log: log}
}

// RecordReport applies a report filed on date to the student's streak and
// returns the new state.
func (s *Service) RecordReport(ctx context.Context, studentID uuid.UUID, date time.Time) (State, error) {
	return s.RecordReportTx(ctx, studentID, date, nil)
}

// RecordReportTx is RecordReport with extra writes. within runs first, in
// the same transaction as the streak update and under the student's lock;
// if it fails nothing is written.
func (s *Service) RecordReportTx(ctx context.Context, studentID uuid.UUID, date time.Time, within func(tx *store.Tx) error) (State, error) {
	unlock := s.locks.Lock(studentID)
	defer unlock()

	var next State
	err := s.db.WithTx(ctx, func(tx *store.Tx) error {
		if within != nil {
			if err := within(tx); err != nil {
				return err
			}
		}

		row, _, err := tx.Streaks().Get(ctx, studentID)
		if err != nil {
			return err
		}
		prev := fromRow(row)
		next = Record(prev, date)

		if sameState(prev, next) {
			return nil
		}
		return tx.Streaks().Put(ctx, toRow(studentID, next))
	})
	if err != nil {
		return State{}, fmt.Errorf("record streak: %w", err)
	}

	s.log.Debug("streak updated", "student_id", studentID, "current", next.Current, "max", next.Max)
	return next, nil
}

// Get returns the stored streak. A student who never reported has the zero
// state.
func (s *Service) Get(ctx context.Context, studentID uuid.UUID) (State, error) {
	row, _, err := s.db.Streaks().Get(ctx, studentID)
	if err != nil {
		return State{}, fmt.Errorf("get streak: %w", err)
	}
	return fromRow(row), nil
}

func fromRow(row store.StreakRow) State {
	return State{Current: row.Current, Max: row.Max, LastReportDate: row.LastReportDate}
}

func toRow(studentID uuid.UUID, s State) store.StreakRow {
	return store.StreakRow{StudentID: studentID, Current: s.Current, Max: s.Max, LastReportDate: s.LastReportDate}
}

func sameState(a, b State) bool {
	if a.Current != b.Current || a.Max != b.Max {
		return false
	}
	if a.LastReportDate == nil || b.LastReportDate == nil {
		return a.LastReportDate == b.LastReportDate
	}
	return a.LastReportDate.Equal(*b.LastReportDate)
}
