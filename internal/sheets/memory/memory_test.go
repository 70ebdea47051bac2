package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"aura/internal/core"
)

func TestSheetAppendEvent(t *testing.T) {
	s := New()
	item := core.NewEventItem(core.Event{ID: uuid.New(), Delta: 3, Reason: "demo"}, core.KnownMember("Ada"))

	ref, err := s.AppendEvent(context.Background(), item)
	if err != nil {
		t.Fatalf("AppendEvent() error = %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("AppendEvent() ref = %q, want mem:1", ref)
	}

	got := s.Events()
	if len(got) != 1 || got[0].ID != item.ID {
		t.Fatalf("Events() = %+v, want the appended item", got)
	}
	got[0].Reason = "changed"
	if s.Events()[0].Reason != "demo" {
		t.Error("Events() should return a copy")
	}
}
