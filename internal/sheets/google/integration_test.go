//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"aura/internal/core"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_AppendEvent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	if os.Getenv("GOOGLE_SPREADSHEET_ID") == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	if os.Getenv("GOOGLE_CREDENTIALS_JSON") == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := NewFromEnv(ctx)
	if err != nil {
		t.Fatalf("NewFromEnv() error = %v", err)
	}
	if err := client.EnsureHeader(ctx); err != nil {
		t.Fatalf("EnsureHeader() error = %v", err)
	}

	item := core.NewEventItem(core.Event{
		ID:         uuid.New(),
		MemberID:   uuid.New(),
		Delta:      1,
		Reason:     "integration test " + time.Now().Format(time.RFC3339),
		OccurredAt: time.Now(),
	}, core.KnownMember("Integration"))

	ref, err := client.AppendEvent(ctx, item)
	if err != nil {
		t.Fatalf("AppendEvent() error = %v", err)
	}
	t.Logf("appended row at %s", ref)
}
