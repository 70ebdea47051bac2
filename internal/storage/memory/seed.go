package memory

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"aura/internal/core"
)

// Seed is the YAML layout accepted by LoadSeed.
//
//	members:
//	  - name: Ada
//	    startingAura: 100
//	events:
//	  - member: Ada
//	    delta: 5
//	    reason: shipped the release
//	    occurredAt: 2024-05-01T10:00:00Z
type Seed struct {
	Members []struct {
		Name         string `yaml:"name"`
		StartingAura *int64 `yaml:"startingAura"`
	} `yaml:"members"`
	Events []struct {
		Member     string    `yaml:"member"`
		Delta      int64     `yaml:"delta"`
		Reason     string    `yaml:"reason"`
		OccurredAt time.Time `yaml:"occurredAt"`
	} `yaml:"events"`
}

// NewFromFile returns a store populated from a YAML seed file.
func NewFromFile(path string) (*Store, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(buf, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	s := New()
	if err := s.Load(context.Background(), seed); err != nil {
		return nil, err
	}
	return s, nil
}

// Load inserts the seed members and events, validating them like API input.
func (s *Store) Load(ctx context.Context, seed Seed) error {
	now := time.Now().UTC()
	ids := make(map[string]uuid.UUID, len(seed.Members))
	for _, sm := range seed.Members {
		in := core.CreateMemberInput{Name: sm.Name, StartingAura: sm.StartingAura}
		if err := in.Validate(); err != nil {
			return fmt.Errorf("seed member %q: %w", sm.Name, err)
		}
		m := core.Member{ID: uuid.New(), Name: in.Name, StartingAura: *in.StartingAura, CreatedAt: now, UpdatedAt: now}
		if err := s.InsertMember(ctx, m); err != nil {
			return fmt.Errorf("seed member %q: %w", sm.Name, err)
		}
		ids[in.Name] = m.ID
	}
	for i, se := range seed.Events {
		id, ok := ids[se.Member]
		if !ok {
			return fmt.Errorf("seed event %d: unknown member %q", i, se.Member)
		}
		occurredAt := se.OccurredAt
		if occurredAt.IsZero() {
			occurredAt = now
		}
		in := core.RecordEventInput{MemberID: id.String(), Delta: se.Delta, Reason: se.Reason}
		if _, err := in.Validate(); err != nil {
			return fmt.Errorf("seed event %d: %w", i, err)
		}
		e := core.Event{ID: uuid.New(), MemberID: id, Delta: in.Delta, Reason: in.Reason, OccurredAt: occurredAt.UTC(), CreatedAt: now}
		if err := s.InsertEvent(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
