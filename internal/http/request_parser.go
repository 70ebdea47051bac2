package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"aura/internal/core"
)

const (
	maxBodyBytes    = 64 << 10
	maxTimelineDays = 366
)

var errInvalidPayload = core.Invalid("Invalid request payload.")

// decodeJSON reads one JSON object from the body into dst. Unknown fields
// are ignored; wrong types are validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.Invalid("Request payload is too large.")
		}
		if errors.Is(err, io.EOF) {
			return errInvalidPayload
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return core.Invalid("Invalid value for " + typeErr.Field + ".")
		}
		return errInvalidPayload
	}
	if dec.More() {
		return errInvalidPayload
	}
	return nil
}

// memberIDParam parses the {id} route parameter.
func memberIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	if raw == "" {
		return uuid.Nil, core.Invalid("Member id is required.")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, core.Invalid("Invalid member identifier.")
	}
	return id, nil
}

// optionalInstant parses an RFC 3339 query parameter. Missing or blank
// values yield nil.
func optionalInstant(q url.Values, key string) (*time.Time, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, core.Invalid("Invalid " + key + " date.")
	}
	return &t, nil
}

// timelineRange reads start and end as calendar days or instants. end
// defaults to now and start to defaultDays before end.
func timelineRange(q url.Values, now time.Time, loc *time.Location, defaultDays int) (start, end time.Time, err error) {
	end = now
	if v := strings.TrimSpace(q.Get("end")); v != "" {
		if end, err = core.ParseDay(v, loc); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	start = end.AddDate(0, 0, -defaultDays)
	if v := strings.TrimSpace(q.Get("start")); v != "" {
		if start, err = core.ParseDay(v, loc); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if end.Sub(start) >= maxTimelineDays*24*time.Hour {
		return time.Time{}, time.Time{}, core.Invalid("Date range is too long.")
	}
	return start, end, nil
}
