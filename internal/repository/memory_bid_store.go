package repository

import (
	"context"
	"sort"
	"sync"

	"COEAnalytics/internal/domain/models"
	"COEAnalytics/internal/domain/repository"
)

// MemoryBidStore keeps records in process. Saving a record whose key already
// exists replaces it in place, keeping first-seen order.
type MemoryBidStore struct {
	mu    sync.RWMutex
	index map[string]int
	data  []models.BidRecord
}

// NewMemoryBidStore creates an empty store.
func NewMemoryBidStore() *MemoryBidStore {
	return &MemoryBidStore{index: make(map[string]int)}
}

var _ repository.RecordStore = (*MemoryBidStore)(nil)

func (s *MemoryBidStore) SaveBatch(_ context.Context, records []models.BidRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		k := r.Key()
		if i, ok := s.index[k]; ok {
			s.data[i] = r
			continue
		}
		s.index[k] = len(s.data)
		s.data = append(s.data, r)
	}
	return nil
}

// Snapshot returns a copy of the matching records.
func (s *MemoryBidStore) Snapshot(ctx context.Context, f models.RecordFilter) ([]models.BidRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.BidRecord, 0, len(s.data))
	for _, r := range s.data {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryBidStore) Categories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	var out []string
	for _, r := range s.data {
		if _, ok := seen[r.Category]; !ok {
			seen[r.Category] = struct{}{}
			out = append(out, r.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Len returns the number of stored records.
func (s *MemoryBidStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryBidStore) Health(context.Context) error { return nil }

func (s *MemoryBidStore) Close() error { return nil }
