// Package catalog serves the read-only competency and phase reference data.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Source loads active reference rows from persistent storage.
type Source interface {
	ActiveCompetencies(ctx context.Context) ([]Competency, error)
	ActivePhases(ctx context.Context) ([]Phase, error)
}

// Catalog caches the active competencies and phases process-wide. Reads are
// lock-free for callers after the first load; Invalidate forces a reload
// after the reference tables were reseeded.
type Catalog struct {
	src   Source
	group singleflight.Group

	mu           sync.RWMutex
	competencies []Competency
	phases       []Phase
	loaded       bool
}

// New creates a catalog backed by src.
func New(src Source) *Catalog {
	return &Catalog{src: src}
}

type snapshot struct {
	competencies []Competency
	phases       []Phase
}

// ListActiveCompetencies returns active competencies ordered by display
// order. The returned slice is a copy and may be modified by the caller.
func (c *Catalog) ListActiveCompetencies(ctx context.Context) ([]Competency, error) {
	snap, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return append([]Competency(nil), snap.competencies...), nil
}

// ListActivePhases returns active phases ordered by display order.
func (c *Catalog) ListActivePhases(ctx context.Context) ([]Phase, error) {
	snap, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return append([]Phase(nil), snap.phases...), nil
}

// PhaseByName looks up an active phase by its exact name.
func (c *Catalog) PhaseByName(ctx context.Context, name string) (Phase, bool, error) {
	phases, err := c.ListActivePhases(ctx)
	if err != nil {
		return Phase{}, false, err
	}
	for _, p := range phases {
		if p.Name == name {
			return p, true, nil
		}
	}
	return Phase{}, false, nil
}

// Invalidate drops the cached rows; the next read reloads from the source.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.competencies = nil
	c.phases = nil
	c.mu.Unlock()
}

func (c *Catalog) load(ctx context.Context) (snapshot, error) {
	c.mu.RLock()
	if c.loaded {
		snap := snapshot{competencies: c.competencies, phases: c.phases}
		c.mu.RUnlock()
		return snap, nil
	}
	c.mu.RUnlock()

	// The shared load outlives any single caller; each caller still stops
	// waiting when its own ctx ends.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("catalog", func() (any, error) {
		comps, err := c.src.ActiveCompetencies(loadCtx)
		if err != nil {
			return nil, fmt.Errorf("load competencies: %w", err)
		}
		phases, err := c.src.ActivePhases(loadCtx)
		if err != nil {
			return nil, fmt.Errorf("load phases: %w", err)
		}
		SortCompetencies(comps)
		SortPhases(phases)

		c.mu.Lock()
		c.competencies = comps
		c.phases = phases
		c.loaded = true
		c.mu.Unlock()
		return snapshot{competencies: comps, phases: phases}, nil
	})

	select {
	case <-ctx.Done():
		return snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return snapshot{}, res.Err
		}
		return res.Val.(snapshot), nil
	}
}
