package sheets

import (
	"context"

	"aura/internal/core"
)

// Ports for outbound adapters.
type (
	// EventAppender writes one recorded aura event as a new sheet row.
	EventAppender interface {
		AppendEvent(ctx context.Context, e core.EventItem) (rowRef string, err error)
	}
)
