// Package store persists security types in memory or PostgreSQL and offers a
// Redis read-through cache in front of either.
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"securitysvc/internal/securitytype/models"
	id "securitysvc/pkg/domain"
	"securitysvc/pkg/platform/sentinel"
)

// ReferenceCounter reports how many securities point at a security type.
type ReferenceCounter interface {
	CountBySecurityType(ctx context.Context, typeID id.SecurityTypeID) (int, error)
}

// InMemoryStore keeps security types in insertion order.
// Version checks and mutations happen under one write lock.
type InMemoryStore struct {
	mu    sync.RWMutex
	byID  map[id.SecurityTypeID]*models.SecurityType
	order []id.SecurityTypeID

	// guard and references are set by RestrictDelete.
	guard      *sync.Mutex
	references ReferenceCounter
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{byID: make(map[id.SecurityTypeID]*models.SecurityType)}
}

// RestrictDelete makes DeleteIfVersion refuse a type that references still
// counts, the in-memory counterpart of ON DELETE RESTRICT. guard must be the
// mutex the security store holds while it checks a type and writes, so no
// security can be attached between the count and the delete.
func (s *InMemoryStore) RestrictDelete(guard *sync.Mutex, references ReferenceCounter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guard = guard
	s.references = references
}

func (s *InMemoryStore) Create(_ context.Context, t *models.SecurityType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[t.ID]; ok {
		return fmt.Errorf("security type %s: %w", t.ID, sentinel.ErrAlreadyUsed)
	}
	if s.abbreviationTaken(t.Abbreviation, t.ID) {
		return fmt.Errorf("abbreviation %q: %w", t.Abbreviation, sentinel.ErrAlreadyUsed)
	}
	s.byID[t.ID] = t.Clone()
	s.order = append(s.order, t.ID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, typeID id.SecurityTypeID) (*models.SecurityType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byID[typeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return t.Clone(), nil
}

// FindByIDs returns the security types that exist among ids. Missing ids are
// simply absent from the map.
func (s *InMemoryStore) FindByIDs(_ context.Context, ids []id.SecurityTypeID) (map[id.SecurityTypeID]*models.SecurityType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.SecurityTypeID]*models.SecurityType, len(ids))
	for _, typeID := range ids {
		if t, ok := s.byID[typeID]; ok {
			out[typeID] = t.Clone()
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]*models.SecurityType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.SecurityType, 0, len(s.order))
	for _, typeID := range s.order {
		out = append(out, s.byID[typeID].Clone())
	}
	return out, nil
}

// UpdateIfVersion replaces the stored fields when the stored version equals
// expectedVersion and returns the document at its new version.
func (s *InMemoryStore) UpdateIfVersion(_ context.Context, t *models.SecurityType, expectedVersion int) (*models.SecurityType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[t.ID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if current.Version != expectedVersion {
		return nil, sentinel.ErrVersionMismatch
	}
	if s.abbreviationTaken(t.Abbreviation, t.ID) {
		return nil, fmt.Errorf("abbreviation %q: %w", t.Abbreviation, sentinel.ErrAlreadyUsed)
	}
	updated := t.Clone()
	updated.Version = current.Version + 1
	s.byID[t.ID] = updated
	return updated.Clone(), nil
}

// DeleteIfVersion removes the document when the stored version equals
// expectedVersion and, with RestrictDelete configured, nothing references it.
func (s *InMemoryStore) DeleteIfVersion(ctx context.Context, typeID id.SecurityTypeID, expectedVersion int) error {
	s.mu.RLock()
	guard := s.guard
	s.mu.RUnlock()
	if guard != nil {
		guard.Lock()
		defer guard.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[typeID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != expectedVersion {
		return sentinel.ErrVersionMismatch
	}
	if s.references != nil {
		n, err := s.references.CountBySecurityType(ctx, typeID)
		if err != nil {
			return fmt.Errorf("count references to security type %s: %w", typeID, err)
		}
		if n > 0 {
			return fmt.Errorf("security type %s: %w", typeID, sentinel.ErrStillReferenced)
		}
	}
	delete(s.byID, typeID)
	s.order = slices.DeleteFunc(s.order, func(v id.SecurityTypeID) bool { return v == typeID })
	return nil
}

// abbreviationTaken reports whether another document already uses abbreviation.
// Callers hold the lock.
func (s *InMemoryStore) abbreviationTaken(abbreviation string, self id.SecurityTypeID) bool {
	for typeID, t := range s.byID {
		if typeID != self && t.Abbreviation == abbreviation {
			return true
		}
	}
	return false
}
