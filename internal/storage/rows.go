package storage

import (
	"database/sql"
	"fmt"
	"time"

	"aura/internal/core"
)

// timeLayout is fixed width so text timestamps sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// dbTime scans timestamps stored either natively or as text.
type dbTime struct {
	t *time.Time
}

func (d dbTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d.t = v.UTC()
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	case nil:
		*d.t = time.Time{}
		return nil
	}
	return fmt.Errorf("unsupported timestamp type %T", src)
}

func (d dbTime) parse(s string) error {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	*d.t = t.UTC()
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(r rowScanner) (core.Member, error) {
	var m core.Member
	err := r.Scan(&m.ID, &m.Name, &m.StartingAura, dbTime{&m.CreatedAt}, dbTime{&m.UpdatedAt})
	return m, err
}

// scanEvent maps one event row. A NULL delta reads as 0.
func scanEvent(r rowScanner) (core.Event, error) {
	var (
		e     core.Event
		delta sql.NullInt64
	)
	err := r.Scan(&e.ID, &e.MemberID, &delta, &e.Reason, dbTime{&e.OccurredAt}, dbTime{&e.CreatedAt})
	e.Delta = delta.Int64
	return e, err
}
