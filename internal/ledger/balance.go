package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"aura/internal/core"
)

// Balances returns, for every member, its starting aura plus every delta with
// occurredAt < cutoff. A zero cutoff includes the whole log.
func (s *Service) Balances(ctx context.Context, members []core.Member, cutoff time.Time) (map[uuid.UUID]int64, error) {
	return s.balances(ctx, "balances", members, cutoff)
}

func (s *Service) balances(ctx context.Context, op string, members []core.Member, cutoff time.Time) (map[uuid.UUID]int64, error) {
	if len(members) == 0 {
		return map[uuid.UUID]int64{}, nil
	}
	events, err := s.events.QueryEvents(ctx, EventQuery{
		MemberIDs:      memberIDs(members),
		OccurredBefore: cutoff,
	})
	if err != nil {
		return nil, core.Backend(op, err)
	}
	return foldBalances(members, events), nil
}

// foldBalances seeds each member with its starting aura and adds the deltas
// of its events. Events of other members are ignored.
func foldBalances(members []core.Member, events []core.Event) map[uuid.UUID]int64 {
	out := make(map[uuid.UUID]int64, len(members))
	for _, m := range members {
		out[m.ID] = m.StartingAura
	}
	for _, e := range events {
		if _, ok := out[e.MemberID]; ok {
			out[e.MemberID] += e.Delta
		}
	}
	return out
}

func sumByMember(events []core.Event) map[uuid.UUID]int64 {
	out := make(map[uuid.UUID]int64)
	for _, e := range events {
		out[e.MemberID] += e.Delta
	}
	return out
}

func sumDeltas(events []core.Event) int64 {
	var total int64
	for _, e := range events {
		total += e.Delta
	}
	return total
}

func memberIDs(members []core.Member) []uuid.UUID {
	ids := make([]uuid.UUID, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids
}
