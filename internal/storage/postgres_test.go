package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura/internal/core"
	"aura/internal/ledger"
)

func TestPostgresEventQueryPlaceholders(t *testing.T) {
	s := &SQLStore{dialect: postgresDialect}
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	q, args := s.buildEventQuery(ledger.EventQuery{
		MemberIDs:      []uuid.UUID{uuid.New(), uuid.New()},
		OccurredFrom:   from,
		OccurredBefore: from.AddDate(0, 0, 1),
		NewestFirst:    true,
		Limit:          20,
	})
	assert.Equal(t,
		"SELECT id, member_id, delta, reason, occurred_at, created_at FROM aura_events"+
			" WHERE member_id IN ($1, $2) AND occurred_at >= $3 AND occurred_at < $4"+
			" ORDER BY occurred_at DESC, created_at DESC LIMIT 20", q)
	require.Len(t, args, 4)
	assert.Equal(t, from, args[2])
}

func TestSQLiteEventQueryWithoutFilters(t *testing.T) {
	s := &SQLStore{dialect: sqliteDialect}
	q, args := s.buildEventQuery(ledger.EventQuery{})
	assert.Equal(t, "SELECT id, member_id, delta, reason, occurred_at, created_at FROM aura_events ORDER BY occurred_at ASC, created_at ASC", q)
	assert.Empty(t, args)
}

func TestIsPostgresUniqueViolation(t *testing.T) {
	assert.True(t, isPostgresUniqueViolation(fmt.Errorf("wrapped: %w", &pq.Error{Code: "23505"})))
	assert.False(t, isPostgresUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isPostgresUniqueViolation(errors.New("23505")))
}

// TestPostgresStore runs against a live database when AURA_TEST_POSTGRES_DSN is set.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("AURA_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("AURA_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()

	m := core.Member{ID: uuid.New(), Name: "pg-" + uuid.NewString()[:8], StartingAura: 10, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()}
	require.NoError(t, s.InsertMember(ctx, m))
	defer s.DeleteMember(ctx, m.ID)

	dup := m
	dup.ID = uuid.New()
	assert.ErrorIs(t, s.InsertMember(ctx, dup), ledger.ErrDuplicateName)

	e := core.Event{ID: uuid.New(), MemberID: m.ID, Delta: 4, Reason: "integration", OccurredAt: time.Now().UTC(), CreatedAt: time.Now().UTC()}
	require.NoError(t, s.InsertEvent(ctx, e))
	got, err := s.QueryEvents(ctx, ledger.EventQuery{EventIDs: []uuid.UUID{e.ID}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(4), got[0].Delta)
}
