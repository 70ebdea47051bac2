package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"aura/internal/core"
	"aura/internal/log"
)

type fakeSheets struct {
	mu       sync.Mutex
	rows     [][]any
	header   []any
	requests []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.rows = append(f.rows, vr.Values...)
		json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{"updatedRange": "Aura!A2:E2"},
		})
	case r.Method == http.MethodGet:
		values := [][]any{}
		if f.header != nil {
			values = append(values, f.header)
		}
		json.NewEncoder(w).Encode(map[string]any{"values": values})
	case r.Method == http.MethodPut:
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.header = vr.Values[0]
		json.NewEncoder(w).Encode(map[string]any{"updatedRange": "Aura!A1:E1"})
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	rome, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		rome = time.FixedZone("CEST", 2*60*60)
	}
	return NewWithService(svc, Options{SpreadsheetID: "sheet-id", Location: rome, Logger: log.Discard()})
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{CredentialsJSON: "{}"})
	require.Error(t, err)
	assert.Equal(t, "missing GOOGLE_SPREADSHEET_ID", err.Error())
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "sheet-id"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")

	_, err = New(context.Background(), Options{SpreadsheetID: "sheet-id", CredentialsFile: "/non/existent.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read service account file")
}

func TestAppendEvent(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	event := core.Event{
		ID:         uuid.New(),
		MemberID:   uuid.New(),
		Delta:      -7,
		Reason:     "missed standup",
		OccurredAt: time.Date(2024, 5, 10, 8, 30, 0, 0, time.UTC),
	}

	ref, err := c.AppendEvent(context.Background(), core.NewEventItem(event, core.KnownMember("Ada")))
	require.NoError(t, err)
	assert.Equal(t, "Aura!A2:E2", ref)

	require.Len(t, fake.rows, 1)
	row := fake.rows[0]
	require.Len(t, row, 5)
	assert.Equal(t, "2024-05-10T10:30:00+02:00", row[0])
	assert.Equal(t, "Ada", row[1])
	assert.EqualValues(t, -7, row[2])
	assert.Equal(t, "missed standup", row[3])
	assert.Equal(t, event.ID.String(), row[4])
}

func TestAppendEventUnknownMember(t *testing.T) {
	row := EventRow(core.NewEventItem(core.Event{ID: uuid.New(), Delta: 1}, core.UnknownMember()), nil)
	assert.Equal(t, core.UnknownMemberName, row[1])
}

func TestAppendEvent_NoService(t *testing.T) {
	c := &Client{spreadsheetID: "sheet-id", sheetName: "Aura"}
	_, err := c.AppendEvent(context.Background(), core.EventItem{})
	assert.EqualError(t, err, "sheets service not initialized")
}

func TestEnsureHeader(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	require.NoError(t, c.EnsureHeader(context.Background()))
	assert.Equal(t, []any{"occurred_at", "member", "delta", "reason", "id"}, fake.header)

	n := len(fake.requests)
	require.NoError(t, c.EnsureHeader(context.Background()))
	assert.Len(t, fake.requests, n+1, "existing header should only be read")
}
