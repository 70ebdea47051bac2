package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura/internal/core"
	"aura/internal/ledger"
	"aura/internal/log"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "aura.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func member(name string, starting int64) core.Member {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	return core.Member{ID: uuid.New(), Name: name, StartingAura: starting, CreatedAt: now, UpdatedAt: now}
}

func TestSQLiteMembers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Ping(ctx))
	assert.Equal(t, "sqlite", s.Driver())

	bo, ada := member("Bo", 50), member("Ada", 100)
	require.NoError(t, s.InsertMember(ctx, bo))
	require.NoError(t, s.InsertMember(ctx, ada))

	err := s.InsertMember(ctx, member("ADA", 1))
	assert.ErrorIs(t, err, ledger.ErrDuplicateName)

	elodie := member("Élodie", 10)
	require.NoError(t, s.InsertMember(ctx, elodie))
	assert.ErrorIs(t, s.InsertMember(ctx, member("élodie", 1)), ledger.ErrDuplicateName)
	accented := "ÉLODIE"
	assert.ErrorIs(t, s.UpdateMember(ctx, bo.ID, ledger.MemberUpdate{Name: &accented}), ledger.ErrDuplicateName)
	require.NoError(t, s.UpdateMember(ctx, elodie.ID, ledger.MemberUpdate{Name: &accented, UpdatedAt: elodie.UpdatedAt}))
	require.NoError(t, s.DeleteMember(ctx, elodie.ID))

	members, err := s.ListMembers(ctx, ledger.OrderByName)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, ada, members[0])
	assert.Equal(t, bo, members[1])

	name := "bo"
	assert.ErrorIs(t, s.UpdateMember(ctx, ada.ID, ledger.MemberUpdate{Name: &name}), ledger.ErrDuplicateName)
	assert.ErrorIs(t, s.UpdateMember(ctx, uuid.New(), ledger.MemberUpdate{Name: &name}), ledger.ErrMemberNotFound)

	starting := int64(-20)
	later := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)
	require.NoError(t, s.UpdateMember(ctx, bo.ID, ledger.MemberUpdate{StartingAura: &starting, UpdatedAt: later}))
	got, err := s.GetMember(ctx, bo.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(-20), got.StartingAura)
	assert.Equal(t, later, got.UpdatedAt)

	require.NoError(t, s.DeleteMember(ctx, bo.ID))
	require.NoError(t, s.DeleteMember(ctx, bo.ID))
	_, err = s.GetMember(ctx, bo.ID)
	assert.ErrorIs(t, err, ledger.ErrMemberNotFound)
}

func TestSQLiteEventQueries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a, b := uuid.New(), uuid.New()
	base := time.Date(2024, 1, 9, 23, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i := 0; i < 4; i++ {
		e := core.Event{
			ID:         uuid.New(),
			MemberID:   a,
			Delta:      int64(i + 1),
			Reason:     "reason",
			OccurredAt: base.Add(time.Duration(i) * time.Hour),
			CreatedAt:  base,
		}
		if i%2 == 1 {
			e.MemberID = b
		}
		ids = append(ids, e.ID)
		require.NoError(t, s.InsertEvent(ctx, e))
	}

	all, err := s.QueryEvents(ctx, ledger.EventQuery{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, base.Add(time.Hour), all[1].OccurredAt)

	// 23:00 on the 9th must sort before 00:00 on the 10th
	window, err := s.QueryEvents(ctx, ledger.EventQuery{
		OccurredFrom:   base.Add(time.Hour),
		OccurredBefore: base.Add(3 * time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, int64(2), window[0].Delta)
	assert.Equal(t, int64(3), window[1].Delta)

	byMember, err := s.QueryEvents(ctx, ledger.EventQuery{MemberIDs: []uuid.UUID{b}})
	require.NoError(t, err)
	assert.Len(t, byMember, 2)

	newest, err := s.QueryEvents(ctx, ledger.EventQuery{NewestFirst: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, newest, 1)
	assert.Equal(t, ids[3], newest[0].ID)

	byID, err := s.QueryEvents(ctx, ledger.EventQuery{EventIDs: []uuid.UUID{ids[0]}})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, a, byID[0].MemberID)
}

func TestSQLiteNullDeltaReadsAsZero(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id, member := uuid.New(), uuid.New()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO aura_events (id, member_id, delta, reason, occurred_at, created_at) VALUES (?, ?, NULL, ?, ?, ?)",
		id.String(), member.String(), "legacy row", formatTime(time.Now()), formatTime(time.Now()))
	require.NoError(t, err)

	events, err := s.QueryEvents(ctx, ledger.EventQuery{MemberIDs: []uuid.UUID{member}})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Zero(t, events[0].Delta)
}

func TestSQLiteMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aura.db")
	require.NoError(t, RunSQLiteMigrations(path))
	require.NoError(t, RunSQLiteMigrations(path))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM aura_members").Scan(&n))
	assert.Zero(t, n)
}

func TestLedgerOverSQLite(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Date(2024, 5, 3, 18, 0, 0, 0, time.UTC)
	svc := ledger.NewService(s, s,
		ledger.WithClock(func() time.Time { return now }),
		ledger.WithLogger(log.Discard()))

	start := int64(100)
	a, err := svc.CreateMember(ctx, core.CreateMemberInput{Name: "Ada", StartingAura: &start})
	require.NoError(t, err)
	_, err = svc.CreateMember(ctx, core.CreateMemberInput{Name: "ada"})
	require.ErrorIs(t, err, core.ErrConflict)

	for i, delta := range []int64{10, 0, -5} {
		if delta == 0 {
			continue
		}
		at := time.Date(2024, 5, 1+i, 12, 0, 0, 0, time.UTC)
		_, err := svc.RecordEvent(ctx, core.RecordEventInput{MemberID: a.ID.String(), Delta: delta, Reason: "scenario", OccurredAt: &at})
		require.NoError(t, err)
	}

	tl, err := svc.GetTimeline(ctx, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, tl.Points, 3)
	assert.Equal(t, int64(110), tl.Points[0].Values[a.ID])
	assert.Equal(t, int64(110), tl.Points[1].Values[a.ID])
	assert.Equal(t, int64(105), tl.Points[2].Values[a.ID])

	ov, err := svc.GetOverview(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, ov.Members, 1)
	assert.Equal(t, int64(105), ov.TeamAura)
	assert.Equal(t, int64(-5), ov.TeamDeltaToday)
	assert.Equal(t, int64(5), ov.RangeDelta)
}

func TestSQLiteFillsNameKeysOnOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "aura.db")
	require.NoError(t, RunSQLiteMigrations(path))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO aura_members (id, name, starting_aura, created_at, updated_at)
		VALUES (?, 'Zoë', 100, '2024-05-01T08:00:00Z', '2024-05-01T08:00:00Z')`, uuid.NewString())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	assert.ErrorIs(t, s.InsertMember(ctx, member("ZOË", 1)), ledger.ErrDuplicateName)
}
