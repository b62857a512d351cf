package streak

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tankyu/diary/internal/clock"
	"github.com/tankyu/diary/internal/logger"
	"github.com/tankyu/diary/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(fmt.Sprintf("file:streak_%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	return s
}

func newStudent(t *testing.T, s *store.Store) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, s.Students().CreateStudent(context.Background(),
		&store.Student{ID: id, Name: "佐藤 花子", CreatedAt: time.Now()}))
	return id
}

func TestService_GetZeroState(t *testing.T) {
	s := openStore(t)
	defer s.Close()
	svc := NewService(s, logger.Nop())

	st, err := svc.Get(context.Background(), newStudent(t, s))
	require.NoError(t, err)
	assert.Equal(t, State{}, st)
}

func TestService_RecordReportSequence(t *testing.T) {
	s := openStore(t)
	defer s.Close()
	svc := NewService(s, logger.Nop())
	ctx := context.Background()
	student := newStudent(t, s)

	steps := []struct {
		day      time.Time
		cur, max int
	}{
		{clock.Date(2024, 6, 10), 1, 1},
		{clock.Date(2024, 6, 11), 2, 2},
		{clock.Date(2024, 6, 11), 2, 2},
		{clock.Date(2024, 6, 12), 3, 3},
		{clock.Date(2024, 6, 15), 1, 3},
		{clock.Date(2024, 6, 16), 2, 3},
	}
	for i, step := range steps {
		got, err := svc.RecordReport(ctx, student, step.day)
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, step.cur, got.Current, "step %d current", i)
		assert.Equal(t, step.max, got.Max, "step %d max", i)
	}

	stored, err := svc.Get(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Current)
	assert.Equal(t, 3, stored.Max)
	require.NotNil(t, stored.LastReportDate)
	assert.True(t, stored.LastReportDate.Equal(clock.Date(2024, 6, 16)))
}

func TestService_WithinFailureRollsBack(t *testing.T) {
	s := openStore(t)
	defer s.Close()
	svc := NewService(s, logger.Nop())
	ctx := context.Background()
	student := newStudent(t, s)

	boom := errors.New("insert failed")
	_, err := svc.RecordReportTx(ctx, student, clock.Date(2024, 6, 10), func(*store.Tx) error { return boom })
	require.ErrorIs(t, err, boom)

	st, err := svc.Get(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Current)
	assert.Nil(t, st.LastReportDate)
}

func TestService_ConcurrentSameDay(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := openStore(t)
	defer s.Close()
	svc := NewService(s, logger.Nop())
	ctx := context.Background()
	student := newStudent(t, s)

	_, err := svc.RecordReport(ctx, student, clock.Date(2024, 6, 10))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.RecordReport(ctx, student, clock.Date(2024, 6, 11)); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent record: %v", err)
	}

	st, err := svc.Get(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Current, "same-day reports must extend the streak once")
	assert.Equal(t, 0, svc.locks.len(), "locks are released")
}

func TestService_ConcurrentStudents(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := openStore(t)
	defer s.Close()
	svc := NewService(s, logger.Nop())
	ctx := context.Background()

	students := make([]uuid.UUID, 5)
	for i := range students {
		students[i] = newStudent(t, s)
	}

	var wg sync.WaitGroup
	for _, id := range students {
		for d := 0; d < 3; d++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.RecordReport(ctx, id, clock.Date(2024, 6, 10))
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()

	for _, id := range students {
		st, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 1, st.Current)
	}
}

func TestKeyedMutex_Serializes(t *testing.T) {
	defer goleak.VerifyNone(t)

	km := newKeyedMutex[string]()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("a")
			mu.Lock()
			inside++
			maxSeen = max(maxSeen, inside)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, km.len())
}
