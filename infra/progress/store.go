package progress

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/radhian/ledger-reconciliation/consts"
	"github.com/radhian/ledger-reconciliation/entity"
)

var ErrNotFound = errors.New("job not found")

// Store persists job progress entries keyed by job id.
type Store interface {
	Put(ctx context.Context, state entity.JobProgress) error
	Get(ctx context.Context, jobID string) (entity.JobProgress, error)
	// Take removes and returns the entry only when its job is done.
	Take(ctx context.Context, jobID string) (entity.JobProgress, error)
	Delete(ctx context.Context, jobID string) error
	// UpdatedBefore lists entries not touched since t.
	UpdatedBefore(ctx context.Context, t time.Time) ([]entity.JobProgress, error)
}

type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entity.JobProgress
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entity.JobProgress)}
}

func (s *MemoryStore) Put(_ context.Context, state entity.JobProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[state.JobID] = state
	return nil
}

func (s *MemoryStore) Get(_ context.Context, jobID string) (entity.JobProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.entries[jobID]
	if !ok {
		return entity.JobProgress{}, ErrNotFound
	}
	return state, nil
}

func (s *MemoryStore) Take(_ context.Context, jobID string) (entity.JobProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.entries[jobID]
	if !ok || state.Status != consts.StatusDone {
		return entity.JobProgress{}, ErrNotFound
	}
	delete(s.entries, jobID)
	return state, nil
}

func (s *MemoryStore) Delete(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, jobID)
	return nil
}

func (s *MemoryStore) UpdatedBefore(_ context.Context, t time.Time) ([]entity.JobProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.JobProgress
	for _, state := range s.entries {
		if state.UpdatedAt.Before(t) {
			out = append(out, state)
		}
	}
	return out, nil
}
