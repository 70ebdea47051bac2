package amqp

import (
	"context"

	"aura/internal/ledger"
)

// Notifier publishes ledger changes through a Client.
type Notifier struct {
	client *Client
}

var _ ledger.Notifier = (*Notifier)(nil)

func NewNotifier(client *Client) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) Notify(ctx context.Context, c ledger.Change) error {
	return n.client.PublishLedgerChange(ctx, NewLedgerMessage(c))
}
