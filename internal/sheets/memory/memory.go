package memory

import (
	"context"
	"fmt"
	"sync"

	"aura/internal/core"
	"aura/internal/sheets"
)

// Sheet keeps appended rows in memory. The exporter uses it for dry runs.
type Sheet struct {
	mu    sync.Mutex
	items []core.EventItem
}

var _ sheets.EventAppender = (*Sheet)(nil)

func New() *Sheet {
	return &Sheet{}
}

// AppendEvent stores the event and returns a synthetic row reference.
func (s *Sheet) AppendEvent(_ context.Context, e core.EventItem) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Events returns a copy of the rows appended so far.
func (s *Sheet) Events() []core.EventItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.EventItem(nil), s.items...)
}
