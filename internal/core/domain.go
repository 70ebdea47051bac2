package core

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// UnknownMemberName is shown for events whose member no longer exists.
const UnknownMemberName = "Unknown member"

type (
	// Member is a registry entry. StartingAura is the baseline that every
	// balance is folded from.
	Member struct {
		ID           uuid.UUID `json:"id"`
		Name         string    `json:"name"`
		StartingAura int64     `json:"startingAura"`
		CreatedAt    time.Time `json:"createdAt"`
		UpdatedAt    time.Time `json:"updatedAt"`
	}

	// Event is an immutable point change for one member.
	Event struct {
		ID         uuid.UUID `json:"id"`
		MemberID   uuid.UUID `json:"memberId"`
		Delta      int64     `json:"delta"`
		Reason     string    `json:"reason"`
		OccurredAt time.Time `json:"occurredAt"`
		CreatedAt  time.Time `json:"createdAt"`
	}

	// MemberStats is a member together with its derived balances.
	MemberStats struct {
		Member
		CurrentAura int64 `json:"currentAura"`
		DeltaTotal  int64 `json:"deltaTotal"`
		DeltaToday  int64 `json:"deltaToday"`
	}

	// EventItem is an event annotated with the member it belongs to.
	EventItem struct {
		ID         uuid.UUID `json:"id"`
		MemberID   uuid.UUID `json:"memberId"`
		Member     MemberRef `json:"memberName"`
		Delta      int64     `json:"delta"`
		Reason     string    `json:"reason"`
		OccurredAt time.Time `json:"occurredAt"`
		CreatedAt  time.Time `json:"createdAt"`
	}

	Overview struct {
		Members        []MemberStats `json:"members"`
		RecentEvents   []EventItem   `json:"recentEvents"`
		TeamAura       int64         `json:"teamAura"`
		TeamDeltaToday int64         `json:"teamDeltaToday"`
		RangeDelta     int64         `json:"rangeDelta"`
	}

	TimelineMember struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
	}

	// TimelinePoint holds every member's balance at the end of Date.
	TimelinePoint struct {
		Date      string              `json:"date"`
		Values    map[uuid.UUID]int64 `json:"values"`
		TeamTotal int64               `json:"teamTotal"`
	}

	Timeline struct {
		Members []TimelineMember `json:"members"`
		Points  []TimelinePoint  `json:"points"`
	}
)

// MemberRef resolves the member an event points at. Members can be deleted
// while their events stay, so a reference is either known or unknown.
type MemberRef struct {
	name  string
	known bool
}

func KnownMember(name string) MemberRef {
	return MemberRef{name: name, known: true}
}

func UnknownMember() MemberRef {
	return MemberRef{}
}

func (r MemberRef) Known() bool {
	return r.known
}

// DisplayName returns the member name, or the placeholder for unknown members.
func (r MemberRef) DisplayName() string {
	if !r.known {
		return UnknownMemberName
	}
	return r.name
}

func (r MemberRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.DisplayName())
}

func (r *MemberRef) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*r = MemberRef{name: name, known: name != UnknownMemberName}
	return nil
}

// NewEventItem pairs an event with its resolved member reference.
func NewEventItem(e Event, ref MemberRef) EventItem {
	return EventItem{
		ID:         e.ID,
		MemberID:   e.MemberID,
		Member:     ref,
		Delta:      e.Delta,
		Reason:     e.Reason,
		OccurredAt: e.OccurredAt,
		CreatedAt:  e.CreatedAt,
	}
}

// EmptyTimeline is returned when there are no members to chart.
func EmptyTimeline() Timeline {
	return Timeline{
		Members: []TimelineMember{},
		Points:  []TimelinePoint{},
	}
}
