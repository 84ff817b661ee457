package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/palmares/internal/domain/model"
	"github.com/okian/palmares/pkg/metrics"
)

// MemoryStore keeps encoded profiles in a map. Safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string][]byte
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, athleteID string) (*model.Profile, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreReadLatency(float64(time.Since(start).Microseconds()) / 1000) }()

	s.mu.RLock()
	b, ok := s.profiles[athleteID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode(b)
}

func (s *MemoryStore) Put(_ context.Context, p *model.Profile) error {
	if err := validate(p); err != nil {
		return err
	}
	start := time.Now()
	b, err := encode(p)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.profiles[p.AthleteID] = b
	n := len(s.profiles)
	s.mu.Unlock()

	metrics.UpdateTotalAthletes(n)
	metrics.RecordStoreWriteLatency(float64(time.Since(start).Microseconds()) / 1000)
	return nil
}

func (s *MemoryStore) IDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.profiles))
	for id := range s.profiles {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

func (s *MemoryStore) Close() error { return nil }
