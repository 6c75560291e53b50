package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// Ensure BriefingStore implements the interface.
var _ driven.BriefingStore = (*BriefingStore)(nil)

// BriefingStore is an in-memory implementation of driven.BriefingStore.
type BriefingStore struct {
	mu      sync.RWMutex
	records map[string]map[string]domain.BriefingRecord // user -> date key -> record
	// FailUpserts makes the next n upserts fail. Used by tests.
	FailUpserts int
}

// NewBriefingStore creates a new in-memory briefing store.
func NewBriefingStore() *BriefingStore {
	return &BriefingStore{records: make(map[string]map[string]domain.BriefingRecord)}
}

// Upsert creates or replaces the record for the user and day.
func (s *BriefingStore) Upsert(_ context.Context, in domain.BriefingUpsert) (*domain.BriefingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUpserts > 0 {
		s.FailUpserts--
		return nil, errStoreUnavailable
	}

	days, ok := s.records[in.UserID]
	if !ok {
		days = make(map[string]domain.BriefingRecord)
		s.records[in.UserID] = days
	}
	var existing *domain.BriefingRecord
	if rec, ok := days[in.DateKey]; ok {
		existing = &rec
	}
	rec := in.Apply(existing, uuid.New().String())
	days[in.DateKey] = rec
	out := copyRecord(rec)
	return &out, nil
}

// Get returns the record for a user and day.
func (s *BriefingStore) Get(_ context.Context, userID, dateKey string) (*domain.BriefingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[userID][dateKey]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := copyRecord(rec)
	return &out, nil
}

// List returns a user's records, newest day first.
func (s *BriefingStore) List(_ context.Context, userID string, limit int) ([]domain.BriefingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.BriefingRecord, 0, len(s.records[userID]))
	for _, rec := range s.records[userID] {
		out = append(out, copyRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateKey > out[j].DateKey })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count returns the number of records held for a user.
func (s *BriefingStore) Count(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[userID])
}

func copyRecord(r domain.BriefingRecord) domain.BriefingRecord {
	if r.Sections != nil {
		r.Sections = append([]domain.Section(nil), r.Sections...)
	}
	return r
}
