package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/proxima/pkg/proxima/dunning"
	"github.com/cognicore/proxima/pkg/proxima/internalerr"
	"github.com/cognicore/proxima/pkg/proxima/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu      sync.RWMutex
	runs    map[string]store.Run
	dunning map[string]map[string]dunning.Result
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		runs:    make(map[string]store.Run),
		dunning: make(map[string]map[string]dunning.Result),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveRun stores a copy of r, replacing any run with the same ID.
func (s *Store) SaveRun(ctx context.Context, r store.Run) (string, error) {
	r = store.Prepare(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = r.Clone()
	return r.ID, nil
}

// LoadRun returns a copy of the run.
func (s *Store) LoadRun(ctx context.Context, id string) (store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return r.Clone(), nil
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context) ([]store.RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.RunInfo, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r.Info())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteRun removes a run and its Dunning results.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; !ok {
		return fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	delete(s.runs, id)
	delete(s.dunning, id)
	return nil
}

// SaveDunning attaches a named result to an existing run.
func (s *Store) SaveDunning(ctx context.Context, runID, name string, r dunning.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[runID]; !ok {
		return fmt.Errorf("run %s: %w", runID, internalerr.ErrNotFound)
	}
	if s.dunning[runID] == nil {
		s.dunning[runID] = make(map[string]dunning.Result)
	}
	s.dunning[runID][name] = store.CloneDunning(r)
	return nil
}

// LoadDunning returns a copy of a named result.
func (s *Store) LoadDunning(ctx context.Context, runID, name string) (dunning.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.dunning[runID][name]
	if !ok {
		return nil, fmt.Errorf("dunning %s/%s: %w", runID, name, internalerr.ErrNotFound)
	}
	return store.CloneDunning(r), nil
}

var _ store.Store = (*Store)(nil)
