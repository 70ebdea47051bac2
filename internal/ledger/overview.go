package ledger

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"aura/internal/core"
)

// ListMembersWithStats returns every member with its current aura, lifetime
// delta and today's delta, highest aura first.
func (s *Service) ListMembersWithStats(ctx context.Context) ([]core.MemberStats, error) {
	const op = "listMembersWithStats"
	members, err := s.members.ListMembers(ctx, OrderByName)
	if err != nil {
		err = core.Backend(op, err)
		s.logFailure(ctx, op, err)
		return nil, err
	}
	stats, err := s.memberStats(ctx, op, members)
	if err != nil {
		s.logFailure(ctx, op, err)
		return nil, err
	}
	return stats, nil
}

// memberStats derives stats for the given members. Current balances and
// today's deltas only depend on the member ids, so they are read concurrently.
func (s *Service) memberStats(ctx context.Context, op string, members []core.Member) ([]core.MemberStats, error) {
	if len(members) == 0 {
		return []core.MemberStats{}, nil
	}

	from, before := core.DayWindow(s.now(), s.loc)
	var current, today map[uuid.UUID]int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.balances(gctx, op, members, time.Time{})
		return err
	})
	g.Go(func() error {
		events, err := s.events.QueryEvents(gctx, EventQuery{
			MemberIDs:      memberIDs(members),
			OccurredFrom:   from,
			OccurredBefore: before,
		})
		if err != nil {
			return core.Backend(op, err)
		}
		today = sumByMember(events)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := make([]core.MemberStats, len(members))
	for i, m := range members {
		stats[i] = core.MemberStats{
			Member:      m,
			CurrentAura: current[m.ID],
			DeltaTotal:  current[m.ID] - m.StartingAura,
			DeltaToday:  today[m.ID],
		}
	}
	sortStats(stats)
	return stats, nil
}

// sortStats orders by current aura descending, then name, then id.
func sortStats(stats []core.MemberStats) {
	sort.SliceStable(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]
		if a.CurrentAura != b.CurrentAura {
			return a.CurrentAura > b.CurrentAura
		}
		an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if an != bn {
			return an < bn
		}
		return a.ID.String() < b.ID.String()
	})
}

// GetOverview builds the overview for [start, end]. A missing end defaults to
// now and a missing start to the configured number of days before end.
func (s *Service) GetOverview(ctx context.Context, start, end *time.Time) (core.Overview, error) {
	rng := core.DateRange{End: s.now()}
	if end != nil {
		rng.End = *end
	}
	if start != nil {
		rng.Start = *start
	} else {
		rng.Start = rng.End.AddDate(0, 0, -s.overviewDays)
	}
	return s.Snapshot(ctx, &rng)
}

// Snapshot combines member stats, the most recent events and the total delta
// inside rng. A nil rng yields a zero range delta.
func (s *Service) Snapshot(ctx context.Context, rng *core.DateRange) (core.Overview, error) {
	const op = "getOverview"
	if rng != nil {
		if err := rng.Validate(); err != nil {
			return core.Overview{}, err
		}
	}

	var (
		stats      []core.MemberStats
		recent     []core.Event
		rangeDelta int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		members, err := s.members.ListMembers(gctx, OrderByName)
		if err != nil {
			return core.Backend(op+"(members)", err)
		}
		stats, err = s.memberStats(gctx, op+"(members)", members)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.events.QueryEvents(gctx, EventQuery{NewestFirst: true, Limit: s.recentLimit})
		if err != nil {
			return core.Backend(op+"(recentEvents)", err)
		}
		return nil
	})
	if rng != nil {
		from, before := rng.Window(s.loc)
		g.Go(func() error {
			events, err := s.events.QueryEvents(gctx, EventQuery{OccurredFrom: from, OccurredBefore: before})
			if err != nil {
				return core.Backend(op+"(rangeDelta)", err)
			}
			rangeDelta = sumDeltas(events)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logFailure(ctx, op, err)
		return core.Overview{}, err
	}

	overview := core.Overview{
		Members:      stats,
		RecentEvents: annotate(recent, stats),
		RangeDelta:   rangeDelta,
	}
	for _, m := range stats {
		overview.TeamAura += m.CurrentAura
		overview.TeamDeltaToday += m.DeltaToday
	}
	return overview, nil
}

// annotate resolves member names for events from an already loaded member set.
func annotate(events []core.Event, stats []core.MemberStats) []core.EventItem {
	names := make(map[uuid.UUID]string, len(stats))
	for _, m := range stats {
		names[m.ID] = m.Name
	}
	items := make([]core.EventItem, len(events))
	for i, e := range events {
		ref := core.UnknownMember()
		if name, ok := names[e.MemberID]; ok {
			ref = core.KnownMember(name)
		}
		items[i] = core.NewEventItem(e, ref)
	}
	return items
}
