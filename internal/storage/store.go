// Package storage implements the ledger store on top of database/sql for
// SQLite and Postgres.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"aura/internal/core"
	"aura/internal/ledger"
)

// dialect captures the differences between the supported SQL engines.
type dialect struct {
	name        string
	placeholder func(n int) string
	timeArg     func(t time.Time) any
	isUnique    func(err error) bool
}

// SQLStore is a ledger.Store backed by a relational database.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

var _ ledger.Store = (*SQLStore)(nil)

func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Driver names the SQL engine behind the store.
func (s *SQLStore) Driver() string {
	return s.dialect.name
}

const memberColumns = "id, name, starting_aura, created_at, updated_at"
const eventColumns = "id, member_id, delta, reason, occurred_at, created_at"

func (s *SQLStore) ListMembers(ctx context.Context, order ledger.MemberOrder) ([]core.Member, error) {
	orderBy := "name ASC, id ASC"
	if order == ledger.OrderByCreatedAt {
		orderBy = "created_at ASC, name ASC"
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+memberColumns+" FROM aura_members ORDER BY "+orderBy)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []core.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

func (s *SQLStore) GetMember(ctx context.Context, id uuid.UUID) (core.Member, error) {
	q := "SELECT " + memberColumns + " FROM aura_members WHERE id = " + s.dialect.placeholder(1)
	m, err := scanMember(s.db.QueryRowContext(ctx, q, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Member{}, ledger.ErrMemberNotFound
	}
	if err != nil {
		return core.Member{}, fmt.Errorf("get member %s: %w", id, err)
	}
	return m, nil
}

func (s *SQLStore) InsertMember(ctx context.Context, m core.Member) error {
	q := fmt.Sprintf("INSERT INTO aura_members (%s, name_key) VALUES (%s)", memberColumns, s.placeholders(1, 6))
	_, err := s.db.ExecContext(ctx, q,
		m.ID.String(), m.Name, m.StartingAura,
		s.dialect.timeArg(m.CreatedAt), s.dialect.timeArg(m.UpdatedAt), core.NameKey(m.Name))
	if err != nil {
		if s.dialect.isUnique(err) {
			return ledger.ErrDuplicateName
		}
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (s *SQLStore) UpdateMember(ctx context.Context, id uuid.UUID, u ledger.MemberUpdate) error {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = "+s.dialect.placeholder(len(args)))
	}
	if u.Name != nil {
		add("name", *u.Name)
		add("name_key", core.NameKey(*u.Name))
	}
	if u.StartingAura != nil {
		add("starting_aura", *u.StartingAura)
	}
	updatedAt := u.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	add("updated_at", s.dialect.timeArg(updatedAt))
	args = append(args, id.String())

	q := fmt.Sprintf("UPDATE aura_members SET %s WHERE id = %s", strings.Join(sets, ", "), s.dialect.placeholder(len(args)))
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		if s.dialect.isUnique(err) {
			return ledger.ErrDuplicateName
		}
		return fmt.Errorf("update member %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update member %s: %w", id, err)
	}
	if n == 0 {
		return ledger.ErrMemberNotFound
	}
	return nil
}

// fillNameKeys sets name_key on rows written before the column existed.
func (s *SQLStore) fillNameKeys(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM aura_members WHERE name_key IS NULL")
	if err != nil {
		return fmt.Errorf("list unkeyed members: %w", err)
	}
	type pending struct{ id, name string }
	var todo []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.name); err != nil {
			rows.Close()
			return fmt.Errorf("scan unkeyed member: %w", err)
		}
		todo = append(todo, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list unkeyed members: %w", err)
	}

	q := fmt.Sprintf("UPDATE aura_members SET name_key = %s WHERE id = %s",
		s.dialect.placeholder(1), s.dialect.placeholder(2))
	for _, p := range todo {
		if _, err := s.db.ExecContext(ctx, q, core.NameKey(p.name), p.id); err != nil {
			if s.dialect.isUnique(err) {
				return fmt.Errorf("member %q clashes with an existing name: %w", p.name, ledger.ErrDuplicateName)
			}
			return fmt.Errorf("set name key for %s: %w", p.id, err)
		}
	}
	return nil
}

func (s *SQLStore) DeleteMember(ctx context.Context, id uuid.UUID) error {
	q := "DELETE FROM aura_members WHERE id = " + s.dialect.placeholder(1)
	if _, err := s.db.ExecContext(ctx, q, id.String()); err != nil {
		return fmt.Errorf("delete member %s: %w", id, err)
	}
	return nil
}

func (s *SQLStore) InsertEvent(ctx context.Context, e core.Event) error {
	q := fmt.Sprintf("INSERT INTO aura_events (%s) VALUES (%s)", eventColumns, s.placeholders(1, 6))
	_, err := s.db.ExecContext(ctx, q,
		e.ID.String(), e.MemberID.String(), e.Delta, e.Reason,
		s.dialect.timeArg(e.OccurredAt), s.dialect.timeArg(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *SQLStore) QueryEvents(ctx context.Context, q ledger.EventQuery) ([]core.Event, error) {
	query, args := s.buildEventQuery(q)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []core.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return events, nil
}

func (s *SQLStore) buildEventQuery(q ledger.EventQuery) (string, []any) {
	var (
		where []string
		args  []any
	)
	in := func(col string, ids []uuid.UUID) {
		marks := make([]string, len(ids))
		for i, id := range ids {
			args = append(args, id.String())
			marks[i] = s.dialect.placeholder(len(args))
		}
		where = append(where, col+" IN ("+strings.Join(marks, ", ")+")")
	}
	if len(q.MemberIDs) > 0 {
		in("member_id", q.MemberIDs)
	}
	if len(q.EventIDs) > 0 {
		in("id", q.EventIDs)
	}
	if !q.OccurredFrom.IsZero() {
		args = append(args, s.dialect.timeArg(q.OccurredFrom))
		where = append(where, "occurred_at >= "+s.dialect.placeholder(len(args)))
	}
	if !q.OccurredBefore.IsZero() {
		args = append(args, s.dialect.timeArg(q.OccurredBefore))
		where = append(where, "occurred_at < "+s.dialect.placeholder(len(args)))
	}

	var b strings.Builder
	b.WriteString("SELECT " + eventColumns + " FROM aura_events")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	if q.NewestFirst {
		b.WriteString(" ORDER BY occurred_at DESC, created_at DESC")
	} else {
		b.WriteString(" ORDER BY occurred_at ASC, created_at ASC")
	}
	if q.Limit > 0 {
		b.WriteString(" LIMIT " + strconv.Itoa(q.Limit))
	}
	return b.String(), args
}

func (s *SQLStore) placeholders(from, count int) string {
	marks := make([]string, count)
	for i := range marks {
		marks[i] = s.dialect.placeholder(from + i)
	}
	return strings.Join(marks, ", ")
}
