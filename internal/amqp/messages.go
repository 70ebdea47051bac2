package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"aura/internal/ledger"
)

// LedgerMessage announces a committed ledger mutation. It carries ids only;
// consumers read the current state from the store.
type LedgerMessage struct {
	Type      ledger.ChangeType `json:"type"`
	MemberID  uuid.UUID         `json:"memberId"`
	EventID   *uuid.UUID        `json:"eventId,omitempty"`
	At        time.Time         `json:"at"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewLedgerMessage builds the message published for c.
func NewLedgerMessage(c ledger.Change) *LedgerMessage {
	msg := &LedgerMessage{
		Type:      c.Type,
		MemberID:  c.MemberID,
		At:        c.At,
		Timestamp: time.Now(),
	}
	if c.EventID != uuid.Nil {
		id := c.EventID
		msg.EventID = &id
	}
	return msg
}

// Change converts the message back into the change it was built from.
func (m *LedgerMessage) Change() ledger.Change {
	c := ledger.Change{Type: m.Type, MemberID: m.MemberID, At: m.At}
	if m.EventID != nil {
		c.EventID = *m.EventID
	}
	return c
}

// ToJSON converts the message to JSON bytes
func (m *LedgerMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerMessageFromJSON parses a message and rejects unknown change types.
func LedgerMessageFromJSON(data []byte) (*LedgerMessage, error) {
	var msg LedgerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case ledger.MemberCreated, ledger.MemberUpdated, ledger.MemberDeleted:
	case ledger.EventRecorded:
		if msg.EventID == nil {
			return nil, fmt.Errorf("%s message without event id", msg.Type)
		}
	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}
	return &msg, nil
}
