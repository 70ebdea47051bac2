package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"aura/internal/core"
	"aura/internal/log"
)

const (
	msgDuplicateName  = "A member with this name already exists."
	msgMemberNotFound = "Member not found."
	msgMemberLost     = "Member was created but could not be loaded."
	msgEventLost      = "Aura event was created but could not be loaded."
	msgEventNotFound  = "Aura event not found."
)

var errEventMissing = errors.New("event missing")

// CreateMember inserts a member and returns it as a plain read would.
func (s *Service) CreateMember(ctx context.Context, in core.CreateMemberInput) (core.MemberStats, error) {
	const op = "createMember"
	if err := in.Validate(); err != nil {
		return core.MemberStats{}, err
	}

	now := s.now().UTC()
	m := core.Member{
		ID:           uuid.New(),
		Name:         in.Name,
		StartingAura: *in.StartingAura,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.members.InsertMember(ctx, m); err != nil {
		return core.MemberStats{}, s.fail(ctx, op, translateMemberErr(op, err))
	}

	stats, err := s.reloadMember(ctx, op, m.ID)
	if errors.Is(err, ErrMemberNotFound) {
		return core.MemberStats{}, s.fail(ctx, op, core.Inconsistent(op, msgMemberLost))
	}
	if err != nil {
		return core.MemberStats{}, s.fail(ctx, op, err)
	}

	s.logger.InfoContext(ctx, "Member created", log.NewFields().WithMember(m.ID).WithOperation(op).ToSlice()...)
	s.notify(ctx, Change{Type: MemberCreated, MemberID: m.ID, At: now})
	return stats, nil
}

// UpdateMember applies a partial update and returns the refreshed member.
func (s *Service) UpdateMember(ctx context.Context, id uuid.UUID, in core.UpdateMemberInput) (core.MemberStats, error) {
	const op = "updateMember"
	if err := in.Validate(); err != nil {
		return core.MemberStats{}, err
	}

	now := s.now().UTC()
	err := s.members.UpdateMember(ctx, id, MemberUpdate{
		Name:         in.Name,
		StartingAura: in.StartingAura,
		UpdatedAt:    now,
	})
	if err != nil {
		return core.MemberStats{}, s.fail(ctx, op, translateMemberErr(op, err))
	}

	stats, err := s.reloadMember(ctx, op, id)
	if errors.Is(err, ErrMemberNotFound) {
		return core.MemberStats{}, s.fail(ctx, op, core.NotFound(op, msgMemberNotFound))
	}
	if err != nil {
		return core.MemberStats{}, s.fail(ctx, op, err)
	}

	s.notify(ctx, Change{Type: MemberUpdated, MemberID: id, At: now})
	return stats, nil
}

// DeleteMember removes a member. Its events are kept. Deleting an unknown id
// succeeds.
func (s *Service) DeleteMember(ctx context.Context, id uuid.UUID) error {
	const op = "deleteMember"
	if err := s.members.DeleteMember(ctx, id); err != nil {
		return s.fail(ctx, op, core.Backend(op, err))
	}
	s.notify(ctx, Change{Type: MemberDeleted, MemberID: id, At: s.now().UTC()})
	return nil
}

// RecordEvent appends an event and returns it annotated with its member.
func (s *Service) RecordEvent(ctx context.Context, in core.RecordEventInput) (core.EventItem, error) {
	const op = "createAuraEvent"
	memberID, err := in.Validate()
	if err != nil {
		return core.EventItem{}, err
	}

	if _, err := s.members.GetMember(ctx, memberID); err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return core.EventItem{}, core.NotFound(op, msgMemberNotFound)
		}
		return core.EventItem{}, s.fail(ctx, op, core.Backend(op, err))
	}

	now := s.now().UTC()
	e := core.Event{
		ID:         uuid.New(),
		MemberID:   memberID,
		Delta:      in.Delta,
		Reason:     in.Reason,
		OccurredAt: now,
		CreatedAt:  now,
	}
	if in.OccurredAt != nil {
		e.OccurredAt = in.OccurredAt.UTC()
	}
	if err := s.events.InsertEvent(ctx, e); err != nil {
		return core.EventItem{}, s.fail(ctx, op, core.Backend(op, err))
	}

	item, err := s.reloadEvent(ctx, op, e.ID)
	if errors.Is(err, errEventMissing) {
		return core.EventItem{}, s.fail(ctx, op, core.Inconsistent(op, msgEventLost))
	}
	if err != nil {
		return core.EventItem{}, s.fail(ctx, op, err)
	}

	s.logger.InfoContext(ctx, "Aura event recorded",
		log.NewFields().WithEvent(e.ID, e.Delta, e.OccurredAt).WithMember(memberID).ToSlice()...)
	s.notify(ctx, Change{Type: EventRecorded, MemberID: memberID, EventID: e.ID, At: now})
	return item, nil
}

// EventItem loads one event by id with its member reference resolved.
func (s *Service) EventItem(ctx context.Context, id uuid.UUID) (core.EventItem, error) {
	const op = "getAuraEvent"
	item, err := s.reloadEvent(ctx, op, id)
	if errors.Is(err, errEventMissing) {
		return core.EventItem{}, core.NotFound(op, msgEventNotFound)
	}
	if err != nil {
		return core.EventItem{}, s.fail(ctx, op, err)
	}
	return item, nil
}

func (s *Service) reloadMember(ctx context.Context, op string, id uuid.UUID) (core.MemberStats, error) {
	m, err := s.members.GetMember(ctx, id)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return core.MemberStats{}, err
		}
		return core.MemberStats{}, core.Backend(op, err)
	}
	stats, err := s.memberStats(ctx, op, []core.Member{m})
	if err != nil {
		return core.MemberStats{}, err
	}
	return stats[0], nil
}

func (s *Service) reloadEvent(ctx context.Context, op string, id uuid.UUID) (core.EventItem, error) {
	events, err := s.events.QueryEvents(ctx, EventQuery{EventIDs: []uuid.UUID{id}, Limit: 1})
	if err != nil {
		return core.EventItem{}, core.Backend(op, err)
	}
	if len(events) == 0 {
		return core.EventItem{}, errEventMissing
	}
	e := events[0]

	ref := core.UnknownMember()
	m, err := s.members.GetMember(ctx, e.MemberID)
	switch {
	case err == nil:
		ref = core.KnownMember(m.Name)
	case !errors.Is(err, ErrMemberNotFound):
		return core.EventItem{}, core.Backend(op, err)
	}
	return core.NewEventItem(e, ref), nil
}

func translateMemberErr(op string, err error) error {
	switch {
	case errors.Is(err, ErrDuplicateName):
		return core.Conflict(op, msgDuplicateName)
	case errors.Is(err, ErrMemberNotFound):
		return core.NotFound(op, msgMemberNotFound)
	default:
		return core.Backend(op, err)
	}
}

// fail logs server-side failures once and returns err unchanged.
func (s *Service) fail(ctx context.Context, op string, err error) error {
	switch core.Kind(err) {
	case "backend", "inconsistent":
		s.logFailure(ctx, op, err)
	default:
		s.logger.WarnContext(ctx, "Ledger request rejected",
			log.FieldOperation, op,
			log.FieldErrorKind, core.Kind(err),
			log.FieldError, err)
	}
	return err
}

func (s *Service) notify(ctx context.Context, c Change) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, c); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger change",
			log.FieldOperation, string(c.Type),
			log.FieldMemberID, c.MemberID.String(),
			log.FieldError, err)
	}
}
