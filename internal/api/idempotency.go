package api

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	pkgredis "yardgate/pkg/redis"
)

const idempotencyTTL = 24 * time.Hour

type idempotencyRecord struct {
	Status      int    `json:"status"`
	Body        string `json:"body"`
	ContentType string `json:"content_type,omitempty"`
	RequestHash string `json:"request_hash"`
}

// Idempotency replays the stored response when a transition POST is retried
// with the same Idempotency-Key and body, and rejects key reuse with a
// different body. Requests without the header pass through untouched, as do
// all requests when no Redis store is configured.
func Idempotency(store pkgredis.IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
			if idempotencyKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "failed to read request")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			requestHash := hashBody(body)
			key := store.IdempotencyKey(buildScope(r), idempotencyKey)

			if stored, getErr := store.Get(r.Context(), key); getErr != nil {
				WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "idempotency check failed")
				return
			} else if stored != "" {
				var record idempotencyRecord
				if decodeErr := json.Unmarshal([]byte(stored), &record); decodeErr != nil {
					WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "bad idempotency record")
					return
				}
				if record.RequestHash != requestHash {
					WriteError(w, http.StatusConflict, "IDEMPOTENCY_KEY_REUSED", "idempotency key reused with different request body")
					return
				}
				writeStoredResponse(w, record)
				return
			}

			rec := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			// Never pin transient failures: a retry with the same key gets
			// a fresh attempt instead of a replayed 5xx.
			if rec.statusOrOK() >= http.StatusInternalServerError {
				return
			}

			record := idempotencyRecord{
				Status:      rec.statusOrOK(),
				Body:        base64.StdEncoding.EncodeToString(rec.body.Bytes()),
				ContentType: rec.Header().Get("Content-Type"),
				RequestHash: requestHash,
			}
			payload, marshalErr := json.Marshal(record)
			if marshalErr != nil {
				return
			}
			_, _ = store.SetNX(r.Context(), key, string(payload), idempotencyTTL)
		})
	}
}

func buildScope(r *http.Request) string {
	actorID := ""
	if a, ok := ActorFromContext(r.Context()); ok {
		actorID = a.ID
	}
	pattern := r.URL.Path
	if ctx := chi.RouteContext(r.Context()); ctx != nil {
		if p := ctx.RoutePattern(); p != "" {
			pattern = p
		}
	}
	return strings.Join([]string{actorID, r.Method, pattern}, "|")
}

func writeStoredResponse(w http.ResponseWriter, record idempotencyRecord) {
	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.WriteHeader(record.Status)
	if decoded, err := base64.StdEncoding.DecodeString(record.Body); err == nil {
		_, _ = w.Write(decoded)
	}
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseCapture) statusOrOK() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}
