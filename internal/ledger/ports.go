package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"aura/internal/core"
)

// Errors returned by store implementations. The service translates them into
// core error kinds.
var (
	ErrDuplicateName  = errors.New("member name already exists")
	ErrMemberNotFound = errors.New("member not found")
)

// EventQuery filters the event log. Zero values mean "no constraint".
type EventQuery struct {
	MemberIDs      []uuid.UUID
	EventIDs       []uuid.UUID
	OccurredFrom   time.Time // inclusive
	OccurredBefore time.Time // exclusive
	NewestFirst    bool
	Limit          int
}

// EventStore is the append-only event log.
type EventStore interface {
	InsertEvent(ctx context.Context, e core.Event) error
	QueryEvents(ctx context.Context, q EventQuery) ([]core.Event, error)
}

type MemberOrder int

const (
	OrderByName MemberOrder = iota
	OrderByCreatedAt
)

// MemberUpdate carries the fields to change; nil fields are left alone.
type MemberUpdate struct {
	Name         *string
	StartingAura *int64
	UpdatedAt    time.Time
}

// MemberRegistry stores members and their starting balances.
// InsertMember and UpdateMember return ErrDuplicateName when the name clashes
// case-insensitively with another member. GetMember and UpdateMember return
// ErrMemberNotFound for unknown ids. DeleteMember is a no-op for unknown ids.
type MemberRegistry interface {
	ListMembers(ctx context.Context, order MemberOrder) ([]core.Member, error)
	GetMember(ctx context.Context, id uuid.UUID) (core.Member, error)
	InsertMember(ctx context.Context, m core.Member) error
	UpdateMember(ctx context.Context, id uuid.UUID, u MemberUpdate) error
	DeleteMember(ctx context.Context, id uuid.UUID) error
}

// Store is a backend providing both primitives.
type Store interface {
	EventStore
	MemberRegistry
}

type ChangeType string

const (
	MemberCreated ChangeType = "member.created"
	MemberUpdated ChangeType = "member.updated"
	MemberDeleted ChangeType = "member.deleted"
	EventRecorded ChangeType = "event.recorded"
)

// Change describes a committed mutation.
type Change struct {
	Type     ChangeType
	MemberID uuid.UUID
	EventID  uuid.UUID
	At       time.Time
}

// Notifier is told about committed mutations. Failures never undo the write.
type Notifier interface {
	Notify(ctx context.Context, c Change) error
}
