package http

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura/internal/core"
)

func TestTimelineRange(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		query     string
		wantStart time.Time
		wantEnd   time.Time
		wantErr   string
	}{
		{
			name:      "defaults",
			query:     "",
			wantStart: now.AddDate(0, 0, -14),
			wantEnd:   now,
		},
		{
			name:      "calendar days in location",
			query:     "start=2024-03-30&end=2024-03-31",
			wantStart: time.Date(2024, 3, 30, 0, 0, 0, 0, rome),
			wantEnd:   time.Date(2024, 3, 31, 0, 0, 0, 0, rome),
		},
		{
			name:      "start defaults relative to end",
			query:     "end=2024-03-20T10:00:00Z",
			wantStart: time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC),
		},
		{name: "bad start", query: "start=tomorrow", wantErr: "Invalid date: tomorrow"},
		{name: "too long", query: "start=2023-01-01&end=2024-03-31", wantErr: "Date range is too long."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			start, end, err := timelineRange(q, now, rome, 14)
			if tt.wantErr != "" {
				require.ErrorIs(t, err, core.ErrValidation)
				assert.Equal(t, tt.wantErr, core.PublicMessage(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.wantStart.Equal(start), "start %s", start)
			assert.True(t, tt.wantEnd.Equal(end), "end %s", end)
		})
	}
}

func TestOptionalInstant(t *testing.T) {
	q := url.Values{"start": {"2024-05-01T08:30:00+02:00"}, "end": {"  "}, "bad": {"2024-05-01"}}

	got, err := optionalInstant(q, "start")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 5, 1, 6, 30, 0, 0, time.UTC)))

	got, err = optionalInstant(q, "end")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = optionalInstant(q, "bad")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.Invalid("bad"), http.StatusBadRequest},
		{core.Conflict("createMember", "dup"), http.StatusConflict},
		{core.NotFound("updateMember", "gone"), http.StatusNotFound},
		{core.Inconsistent("createMember", "lost"), http.StatusInternalServerError},
		{core.Backend("getOverview", fmt.Errorf("disk full")), http.StatusInternalServerError},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestErrorResponseHidesBackendDetail(t *testing.T) {
	resp := ErrorResponse(core.Backend("getOverview", fmt.Errorf("pq: password authentication failed")))
	body, ok := resp.body.(errorPayload)
	require.True(t, ok)
	assert.Equal(t, "backend", body.Kind)
	assert.NotContains(t, body.Error, "password")
}
