package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
)

type fakeSource struct {
	comps  []Competency
	phases []Phase
	err    error
	loads  atomic.Int32

	// entered and release, when set, hold a load open until the test lets
	// it finish.
	entered chan struct{}
	release chan struct{}
}

func (f *fakeSource) ActiveCompetencies(ctx context.Context) ([]Competency, error) {
	f.loads.Add(1)
	if f.release != nil {
		close(f.entered)
		<-f.release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return append([]Competency(nil), f.comps...), nil
}

func (f *fakeSource) ActivePhases(context.Context) ([]Phase, error) {
	return append([]Phase(nil), f.phases...), nil
}

func TestListActiveCompetencies_Ordered(t *testing.T) {
	a := Competency{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000b"), Name: "b", DisplayOrder: 2}
	b := Competency{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000a"), Name: "a", DisplayOrder: 2}
	c := Competency{ID: uuid.New(), Name: "first", DisplayOrder: 1}
	cat := New(&fakeSource{comps: []Competency{a, b, c}})

	got, err := cat.ListActiveCompetencies(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"first", "a", "b"}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("position %d = %q, want %q", i, got[i].Name, name)
		}
	}
}

func TestCatalog_CachesUntilInvalidated(t *testing.T) {
	src := &fakeSource{comps: SeedCompetencies(), phases: SeedPhases()}
	cat := New(src)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := cat.ListActiveCompetencies(ctx); err != nil {
			t.Fatalf("list: %v", err)
		}
	}
	if n := src.loads.Load(); n != 1 {
		t.Errorf("source loaded %d times, want 1", n)
	}

	cat.Invalidate()
	if _, err := cat.ListActivePhases(ctx); err != nil {
		t.Fatalf("list phases: %v", err)
	}
	if n := src.loads.Load(); n != 2 {
		t.Errorf("source loaded %d times after invalidate, want 2", n)
	}
}

func TestCatalog_ConcurrentColdLoads(t *testing.T) {
	src := &fakeSource{comps: SeedCompetencies(), phases: SeedPhases()}
	cat := New(src)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			comps, err := cat.ListActiveCompetencies(context.Background())
			if err != nil || len(comps) != 7 {
				t.Errorf("got %d competencies, err %v", len(comps), err)
			}
		}()
	}
	wg.Wait()
}

func TestCatalog_CancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	src := &fakeSource{
		comps:   SeedCompetencies(),
		phases:  SeedPhases(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	cat := New(src)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := cat.ListActiveCompetencies(ctx)
		done <- err
	}()

	<-src.entered
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller got %v, want context.Canceled", err)
	}
	close(src.release)

	comps, err := cat.ListActiveCompetencies(context.Background())
	if err != nil {
		t.Fatalf("list after cancelled load: %v", err)
	}
	if len(comps) != 7 {
		t.Errorf("got %d competencies, want 7", len(comps))
	}
	if n := src.loads.Load(); n != 1 {
		t.Errorf("source loaded %d times, want 1", n)
	}
}

func TestCatalog_EmptySource(t *testing.T) {
	cat := New(&fakeSource{})
	comps, err := cat.ListActiveCompetencies(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(comps) != 0 {
		t.Errorf("got %d competencies, want 0", len(comps))
	}
}

func TestCatalog_SourceErrorNotCached(t *testing.T) {
	src := &fakeSource{err: errors.New("db down")}
	cat := New(src)
	if _, err := cat.ListActiveCompetencies(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	src.err = nil
	src.comps = SeedCompetencies()
	comps, err := cat.ListActiveCompetencies(context.Background())
	if err != nil {
		t.Fatalf("list after recovery: %v", err)
	}
	if len(comps) != 7 {
		t.Errorf("got %d competencies, want 7", len(comps))
	}
}

func TestPhaseByName(t *testing.T) {
	cat := New(&fakeSource{phases: SeedPhases()})
	p, ok, err := cat.PhaseByName(context.Background(), PhaseAnalysis)
	if err != nil || !ok {
		t.Fatalf("PhaseByName: ok=%v err=%v", ok, err)
	}
	if p.DisplayOrder != 3 {
		t.Errorf("display order = %d, want 3", p.DisplayOrder)
	}
	if _, ok, _ := cat.PhaseByName(context.Background(), "unknown"); ok {
		t.Error("unknown phase should not resolve")
	}
}

func TestSeedIDsAreStable(t *testing.T) {
	a := SeedCompetencies()
	b := SeedCompetencies()
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("seed id for %q differs between calls", a[i].Name)
		}
	}
}
