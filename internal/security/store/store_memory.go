// Package store persists securities in memory or PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"securitysvc/internal/security/models"
	stmodels "securitysvc/internal/securitytype/models"
	ststore "securitysvc/internal/securitytype/store"
	id "securitysvc/pkg/domain"
	"securitysvc/pkg/platform/sentinel"
)

// TypeLookup resolves the security type a security points at.
type TypeLookup interface {
	FindByID(ctx context.Context, typeID id.SecurityTypeID) (*stmodels.SecurityType, error)
}

// InMemoryStore keeps securities in insertion order.
// Version checks and mutations happen under one write lock.
type InMemoryStore struct {
	mu    sync.RWMutex
	byID  map[id.SecurityID]*models.Security
	order []id.SecurityID

	// guard and types are set by CheckReferences.
	guard *sync.Mutex
	types TypeLookup
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{byID: make(map[id.SecurityID]*models.Security)}
}

// CheckReferences makes Create and UpdateIfVersion reject a security whose
// type types cannot find, the in-memory counterpart of the foreign key.
// guard must be the mutex the security type store holds while it checks for
// references and deletes, so that a type cannot disappear between the check
// and the write.
func (s *InMemoryStore) CheckReferences(guard *sync.Mutex, types TypeLookup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guard = guard
	s.types = types
}

// LinkInMemory enforces references between the two memory stores the way the
// PostgreSQL foreign key does: a security needs an existing type, and a type
// with securities cannot be deleted.
func LinkInMemory(securities *InMemoryStore, types *ststore.InMemoryStore) {
	guard := new(sync.Mutex)
	securities.CheckReferences(guard, types)
	types.RestrictDelete(guard, securities)
}

func (s *InMemoryStore) Create(ctx context.Context, sec *models.Security) error {
	unlock := s.lockReferences()
	defer unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[sec.ID]; ok {
		return fmt.Errorf("security %s: %w", sec.ID, sentinel.ErrAlreadyUsed)
	}
	if err := s.checkType(ctx, sec.SecurityTypeID); err != nil {
		return err
	}
	if s.tickerTaken(sec.Ticker, sec.ID) {
		return fmt.Errorf("ticker %q: %w", sec.Ticker, sentinel.ErrAlreadyUsed)
	}
	s.byID[sec.ID] = sec.Clone()
	s.order = append(s.order, sec.ID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, securityID id.SecurityID) (*models.Security, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.byID[securityID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return sec.Clone(), nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]*models.Security, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Security, 0, len(s.order))
	for _, securityID := range s.order {
		out = append(out, s.byID[securityID].Clone())
	}
	return out, nil
}

// Count returns the number of securities matching filter.
func (s *InMemoryStore) Count(_ context.Context, filter models.TickerFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, sec := range s.byID {
		if filter.Matches(sec.Ticker) {
			n++
		}
	}
	return n, nil
}

// Search returns the window [offset, offset+limit) of the securities matching
// filter, ordered by ticker in byte order.
func (s *InMemoryStore) Search(_ context.Context, filter models.TickerFilter, limit, offset int) ([]*models.Security, error) {
	s.mu.RLock()
	matched := make([]*models.Security, 0, len(s.byID))
	for _, sec := range s.byID {
		if filter.Matches(sec.Ticker) {
			matched = append(matched, sec.Clone())
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b *models.Security) int {
		if c := strings.Compare(a.Ticker, b.Ticker); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	if offset >= len(matched) {
		return []*models.Security{}, nil
	}
	end := offset + min(limit, len(matched)-offset)
	return matched[offset:end], nil
}

// CountBySecurityType returns how many securities reference typeID.
func (s *InMemoryStore) CountBySecurityType(_ context.Context, typeID id.SecurityTypeID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, sec := range s.byID {
		if sec.SecurityTypeID == typeID {
			n++
		}
	}
	return n, nil
}

// UpdateIfVersion replaces the stored fields when the stored version equals
// expectedVersion and returns the security at its new version.
func (s *InMemoryStore) UpdateIfVersion(ctx context.Context, sec *models.Security, expectedVersion int) (*models.Security, error) {
	unlock := s.lockReferences()
	defer unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[sec.ID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if current.Version != expectedVersion {
		return nil, sentinel.ErrVersionMismatch
	}
	if err := s.checkType(ctx, sec.SecurityTypeID); err != nil {
		return nil, err
	}
	if s.tickerTaken(sec.Ticker, sec.ID) {
		return nil, fmt.Errorf("ticker %q: %w", sec.Ticker, sentinel.ErrAlreadyUsed)
	}
	updated := sec.Clone()
	updated.Version = current.Version + 1
	s.byID[sec.ID] = updated
	return updated.Clone(), nil
}

func (s *InMemoryStore) DeleteIfVersion(_ context.Context, securityID id.SecurityID, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[securityID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != expectedVersion {
		return sentinel.ErrVersionMismatch
	}
	delete(s.byID, securityID)
	s.order = slices.DeleteFunc(s.order, func(v id.SecurityID) bool { return v == securityID })
	return nil
}

// lockReferences takes the reference guard when one is configured. It runs
// before s.mu so the lock order matches the security type store's delete.
func (s *InMemoryStore) lockReferences() (unlock func()) {
	s.mu.RLock()
	guard := s.guard
	s.mu.RUnlock()
	if guard == nil {
		return func() {}
	}
	guard.Lock()
	return guard.Unlock
}

// checkType is called with the reference guard and s.mu held.
func (s *InMemoryStore) checkType(ctx context.Context, typeID id.SecurityTypeID) error {
	if s.types == nil {
		return nil
	}
	if _, err := s.types.FindByID(ctx, typeID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return fmt.Errorf("security type %s: %w", typeID, sentinel.ErrInvalidReference)
		}
		return fmt.Errorf("check security type %s: %w", typeID, err)
	}
	return nil
}

// tickerTaken reports whether another security already uses ticker.
// Callers hold the lock.
func (s *InMemoryStore) tickerTaken(ticker string, self id.SecurityID) bool {
	for securityID, sec := range s.byID {
		if securityID != self && sec.Ticker == ticker {
			return true
		}
	}
	return false
}
