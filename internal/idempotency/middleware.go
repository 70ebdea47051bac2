package idempotency

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"aura/internal/log"
)

const (
	HeaderKey      = "Idempotency-Key"
	HeaderReplayed = "Idempotent-Replayed"

	maxKeyLength = 255
	maxBodyBytes = 1 << 20
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Middleware replays the stored response when a POST or PATCH carries an
// Idempotency-Key that was already answered. Server errors are not stored,
// so a retry after a 5xx runs the request again.
func Middleware(store *Store, logger *log.Logger) func(http.Handler) http.Handler {
	logger = logger.WithComponent(log.ComponentIdem)
	var inFlight sync.Map

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(HeaderKey)
			if key == "" || (r.Method != http.MethodPost && r.Method != http.MethodPatch) {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxKeyLength {
				writeError(w, http.StatusBadRequest, "Idempotency-Key is too long.", "validation")
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
			if err != nil {
				writeError(w, http.StatusBadRequest, "Could not read request body.", "validation")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			fp := fingerprint(r, body)

			// Claim before looking up: a request that finished in between
			// has saved its record before releasing the key.
			if _, busy := inFlight.LoadOrStore(key, struct{}{}); busy {
				writeError(w, http.StatusConflict, "A request with this Idempotency-Key is in progress.", "conflict")
				return
			}
			defer inFlight.Delete(key)

			rec, err := store.Get(key)
			switch {
			case err == nil:
				if rec.Fingerprint != fp {
					writeError(w, http.StatusUnprocessableEntity, "Idempotency-Key was already used for a different request.", "validation")
					return
				}
				logger.DebugContext(r.Context(), "Replaying stored response", "key", key, log.FieldStatusCode, rec.Status)
				replay(w, rec)
				return
			case !errors.Is(err, ErrNotFound):
				logger.ErrorContext(r.Context(), "Idempotency store read failed", log.FieldError, err)
				writeError(w, http.StatusInternalServerError, "Internal server error.", "backend")
				return
			}

			rw := &recorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			if rw.status >= http.StatusInternalServerError {
				return
			}
			_, _, err = store.Save(key, Record{
				Fingerprint: fp,
				Status:      rw.status,
				ContentType: rw.Header().Get("Content-Type"),
				Body:        rw.body.Bytes(),
			})
			if err != nil {
				logger.ErrorContext(r.Context(), "Failed to store idempotent response", "key", key, log.FieldError, err)
			}
		})
	}
}

func fingerprint(r *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(r.Method))
	h.Write([]byte{0})
	h.Write([]byte(r.URL.Path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func replay(w http.ResponseWriter, rec *Record) {
	if rec.ContentType != "" {
		w.Header().Set("Content-Type", rec.ContentType)
	}
	w.Header().Set(HeaderReplayed, "true")
	w.WriteHeader(rec.Status)
	w.Write(rec.Body)
}

func writeError(w http.ResponseWriter, status int, msg, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Error: msg, Kind: kind})
}

// recorder copies the response while passing it through.
type recorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (r *recorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
