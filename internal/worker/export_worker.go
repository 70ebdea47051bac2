package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"aura/internal/amqp"
	"aura/internal/cache"
	"aura/internal/core"
	"aura/internal/ledger"
	"aura/internal/log"
	"aura/internal/sheets"
)

const (
	exportedCacheSize = 10_000
	exportedCacheTTL  = 24 * time.Hour
	cleanupInterval   = 10 * time.Minute
)

// EventSource loads a recorded event with its member resolved.
type EventSource interface {
	EventItem(ctx context.Context, id uuid.UUID) (core.EventItem, error)
}

// Consumer delivers ledger change messages to a handler.
type Consumer interface {
	ConsumeLedgerChanges(ctx context.Context, prefetch int, handler func(context.Context, *amqp.LedgerMessage) error) error
}

// ExportWorker appends every recorded aura event to the activity sheet.
type ExportWorker struct {
	events   EventSource
	sheet    sheets.EventAppender
	exported *cache.LRU[uuid.UUID, string]
	logger   *log.Logger
}

func NewExportWorker(events EventSource, sheet sheets.EventAppender, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExportWorker{
		events:   events,
		sheet:    sheet,
		exported: cache.NewLRU[uuid.UUID, string](exportedCacheSize, exportedCacheTTL),
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Run consumes ledger changes until parent is done.
func (w *ExportWorker) Run(parent context.Context, consumer Consumer, prefetch int) error {
	ctx, cancel := context.WithCancel(parent)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		cache.RunCleanup(ctx, cleanupInterval, func(n int) {
			w.logger.Debug("Dropped expired export entries", log.FieldCount, n)
		}, w.exported)
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	err := consumer.ConsumeLedgerChanges(ctx, prefetch, w.HandleLedgerMessage)
	if parent.Err() != nil {
		return nil
	}
	return err
}

// HandleLedgerMessage exports event.recorded messages and acknowledges the
// rest. Returning an error requeues the message.
func (w *ExportWorker) HandleLedgerMessage(ctx context.Context, msg *amqp.LedgerMessage) error {
	if msg.Type != ledger.EventRecorded || msg.EventID == nil {
		w.logger.DebugContext(ctx, "Ignoring ledger change", "type", msg.Type, log.FieldMemberID, msg.MemberID)
		return nil
	}
	id := *msg.EventID

	// redelivered after a successful append but before the ack
	if ref, ok := w.exported.Get(id); ok {
		w.logger.InfoContext(ctx, "Event already exported", log.FieldEventID, id, "sheets_ref", ref)
		return nil
	}

	item, err := w.events.EventItem(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		w.logger.WarnContext(ctx, "Recorded event no longer readable, skipping export",
			log.FieldEventID, id,
			log.FieldError, err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load event %s: %w", id, err)
	}

	ref, err := w.sheet.AppendEvent(ctx, item)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}
	w.exported.Add(id, ref)

	w.logger.InfoContext(ctx, "Exported aura event",
		log.NewFields().
			WithEvent(item.ID, item.Delta, item.OccurredAt).
			WithMember(item.MemberID).
			ToSlice()...)
	return nil
}
