package core

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MinNameLength   = 2
	MaxNameLength   = 60
	MinReasonLength = 3
	MaxReasonLength = 280

	MinAura int64 = -1000
	MaxAura int64 = 1000

	DefaultStartingAura int64 = 100
)

type CreateMemberInput struct {
	Name         string `json:"name"`
	StartingAura *int64 `json:"startingAura,omitempty"`
}

// Validate trims the name and fills in the default starting aura.
func (in *CreateMemberInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateName(in.Name); err != nil {
		return err
	}
	if in.StartingAura == nil {
		v := DefaultStartingAura
		in.StartingAura = &v
	}
	return validateStartingAura(*in.StartingAura)
}

type UpdateMemberInput struct {
	Name         *string `json:"name,omitempty"`
	StartingAura *int64  `json:"startingAura,omitempty"`
}

func (in *UpdateMemberInput) Validate() error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validateName(name); err != nil {
			return err
		}
		in.Name = &name
	}
	if in.StartingAura != nil {
		if err := validateStartingAura(*in.StartingAura); err != nil {
			return err
		}
	}
	if in.Name == nil && in.StartingAura == nil {
		return Invalid("At least one field must be provided.")
	}
	return nil
}

type RecordEventInput struct {
	MemberID   string     `json:"memberId"`
	Delta      int64      `json:"delta"`
	Reason     string     `json:"reason"`
	OccurredAt *time.Time `json:"occurredAt,omitempty"`
}

// Validate trims the reason and returns the parsed member id.
func (in *RecordEventInput) Validate() (uuid.UUID, error) {
	id, err := uuid.Parse(in.MemberID)
	if err != nil {
		return uuid.Nil, Invalid("Invalid member identifier.")
	}
	switch {
	case in.Delta < MinAura:
		return uuid.Nil, Invalid("Delta is too low.")
	case in.Delta > MaxAura:
		return uuid.Nil, Invalid("Delta is too high.")
	case in.Delta == 0:
		return uuid.Nil, Invalid("Delta cannot be 0.")
	}
	in.Reason = strings.TrimSpace(in.Reason)
	n := utf8.RuneCountInString(in.Reason)
	if n < MinReasonLength {
		return uuid.Nil, Invalid("Reason must have at least 3 characters.")
	}
	if n > MaxReasonLength {
		return uuid.Nil, Invalid("Reason is too long.")
	}
	return id, nil
}

func validateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < MinNameLength {
		return Invalid("Member name must have at least 2 characters.")
	}
	if n > MaxNameLength {
		return Invalid("Member name is too long.")
	}
	return nil
}

func validateStartingAura(v int64) error {
	if v < MinAura {
		return Invalid("Starting aura is too low.")
	}
	if v > MaxAura {
		return Invalid("Starting aura is too high.")
	}
	return nil
}
