package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"aura/internal/core"
	"aura/internal/log"
)

// GetTimeline returns one point per calendar day in [start, end] holding each
// member's balance at the end of that day.
func (s *Service) GetTimeline(ctx context.Context, start, end time.Time) (core.Timeline, error) {
	const op = "getTimeline"
	rng := core.DateRange{Start: start, End: end}
	if err := rng.ValidateDays(s.loc); err != nil {
		return core.Timeline{}, err
	}

	members, err := s.members.ListMembers(ctx, OrderByName)
	if err != nil {
		err = core.Backend(op+"(members)", err)
		s.logFailure(ctx, op, err)
		return core.Timeline{}, err
	}
	if len(members) == 0 {
		return core.EmptyTimeline(), nil
	}

	from, before := rng.Window(s.loc)
	var (
		seed    map[uuid.UUID]int64
		inRange []core.Event
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		seed, err = s.balances(gctx, op+"(previousEvents)", members, from)
		return err
	})
	g.Go(func() error {
		var err error
		inRange, err = s.events.QueryEvents(gctx, EventQuery{
			MemberIDs:      memberIDs(members),
			OccurredFrom:   from,
			OccurredBefore: before,
		})
		if err != nil {
			return core.Backend(op+"(rangeEvents)", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logFailure(ctx, op, err)
		return core.Timeline{}, err
	}

	tl := buildTimeline(members, seed, inRange, rng.Days(s.loc), s.loc)
	s.logger.DebugContext(ctx, "Timeline built",
		log.NewFields().WithOperation(op).WithRange(from, before).ToSlice()...)
	return tl, nil
}

// buildTimeline walks days in order, adding each day's deltas to the running
// balances carried in from seed.
func buildTimeline(members []core.Member, seed map[uuid.UUID]int64, events []core.Event, days []time.Time, loc *time.Location) core.Timeline {
	deltaByDay := make(map[string]map[uuid.UUID]int64)
	for _, e := range events {
		key := core.DayKey(e.OccurredAt, loc)
		day, ok := deltaByDay[key]
		if !ok {
			day = make(map[uuid.UUID]int64)
			deltaByDay[key] = day
		}
		day[e.MemberID] += e.Delta
	}

	running := make(map[uuid.UUID]int64, len(members))
	tl := core.Timeline{
		Members: make([]core.TimelineMember, len(members)),
		Points:  make([]core.TimelinePoint, 0, len(days)),
	}
	for i, m := range members {
		tl.Members[i] = core.TimelineMember{ID: m.ID, Name: m.Name}
		if v, ok := seed[m.ID]; ok {
			running[m.ID] = v
		} else {
			running[m.ID] = m.StartingAura
		}
	}

	for _, day := range days {
		key := core.DayKey(day, loc)
		dayDeltas := deltaByDay[key]
		point := core.TimelinePoint{
			Date:   key,
			Values: make(map[uuid.UUID]int64, len(members)),
		}
		for _, m := range members {
			running[m.ID] += dayDeltas[m.ID]
			point.Values[m.ID] = running[m.ID]
			point.TeamTotal += running[m.ID]
		}
		tl.Points = append(tl.Points, point)
	}
	return tl
}
