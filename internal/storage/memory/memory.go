// Package memory is an in-process ledger store used by tests and the memory
// backend.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"aura/internal/core"
	"aura/internal/ledger"
)

type Store struct {
	mu      sync.Mutex
	members map[uuid.UUID]core.Member
	events  []core.Event
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{members: make(map[uuid.UUID]core.Member)}
}

func (s *Store) ListMembers(_ context.Context, order ledger.MemberOrder) ([]core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if order == ledger.OrderByCreatedAt && !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *Store) GetMember(_ context.Context, id uuid.UUID) (core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return core.Member{}, ledger.ErrMemberNotFound
	}
	return m, nil
}

func (s *Store) InsertMember(_ context.Context, m core.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(m.Name, uuid.Nil) {
		return ledger.ErrDuplicateName
	}
	s.members[m.ID] = m
	return nil
}

func (s *Store) UpdateMember(_ context.Context, id uuid.UUID, u ledger.MemberUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return ledger.ErrMemberNotFound
	}
	if u.Name != nil {
		if s.nameTaken(*u.Name, id) {
			return ledger.ErrDuplicateName
		}
		m.Name = *u.Name
	}
	if u.StartingAura != nil {
		m.StartingAura = *u.StartingAura
	}
	if !u.UpdatedAt.IsZero() {
		m.UpdatedAt = u.UpdatedAt
	}
	s.members[id] = m
	return nil
}

func (s *Store) DeleteMember(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, id)
	return nil
}

func (s *Store) InsertEvent(_ context.Context, e core.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *Store) QueryEvents(_ context.Context, q ledger.EventQuery) ([]core.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Event
	for _, e := range s.events {
		if Matches(q, e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.NewestFirst {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Matches reports whether e passes every filter in q.
func Matches(q ledger.EventQuery, e core.Event) bool {
	if len(q.MemberIDs) > 0 && !slices.Contains(q.MemberIDs, e.MemberID) {
		return false
	}
	if len(q.EventIDs) > 0 && !slices.Contains(q.EventIDs, e.ID) {
		return false
	}
	if !q.OccurredFrom.IsZero() && e.OccurredAt.Before(q.OccurredFrom) {
		return false
	}
	if !q.OccurredBefore.IsZero() && !e.OccurredAt.Before(q.OccurredBefore) {
		return false
	}
	return true
}

func (s *Store) nameTaken(name string, except uuid.UUID) bool {
	for id, m := range s.members {
		if id != except && core.NameKey(m.Name) == core.NameKey(name) {
			return true
		}
	}
	return false
}
