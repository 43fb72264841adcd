package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/servicedesk-backend/api/responses"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/servicedesk-backend/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayHeader      = "Idempotent-Replayed"
	maxKeyLen         = 128
	defaultTTL        = 24 * time.Hour
)

type idempotencyRecord struct {
	Status      int    `json:"status"`
	Body        string `json:"body"`
	ContentType string `json:"content_type,omitempty"`
	RequestHash string `json:"request_hash"`
}

// Idempotency requires an Idempotency-Key on the route it wraps and replays the
// stored response for a repeated key. Reusing a key with a different body is a
// conflict. Server errors are not stored so the caller can retry.
func Idempotency(store pkgredis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			idemKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if idemKey == "" || len(idemKey) > maxKeyLen {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required").
					WithDetails(map[string]any{"header": idempotencyHeader}))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			requestHash := hashBody(body)
			key := store.IdempotencyKey(scopeOf(r), idemKey)

			stored, err := store.Get(ctx, key)
			switch {
			case err != nil && !pkgredis.IsNil(err):
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			case err == nil && stored != "":
				var record idempotencyRecord
				if err := json.Unmarshal([]byte(stored), &record); err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
					return
				}
				if record.RequestHash != requestHash {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with a different request body"))
					return
				}
				replay(w, record)
				return
			}

			rec := &responseCapture{statusRecorder: statusRecorder{ResponseWriter: w}}
			next.ServeHTTP(rec, r)

			status := rec.statusCode()
			if status >= http.StatusInternalServerError {
				return
			}
			payload, err := json.Marshal(idempotencyRecord{
				Status:      status,
				Body:        base64.StdEncoding.EncodeToString(rec.body.Bytes()),
				ContentType: rec.Header().Get("Content-Type"),
				RequestHash: requestHash,
			})
			if err != nil {
				logFailure(logg, r, "idempotency.marshal_failed", err)
				return
			}
			if _, err := store.SetNX(ctx, key, string(payload), ttl); err != nil {
				logFailure(logg, r, "idempotency.persist_failed", err)
			}
		})
	}
}

// scopeOf keys records per caller and path. Public routes fall back to the
// client IP.
func scopeOf(r *http.Request) string {
	caller := "ip:" + clientIP(r)
	if actor := ActorFromContext(r.Context()); !actor.IsZero() {
		caller = "user:" + strconv.FormatUint(uint64(actor.UserID), 10)
	}
	return strings.Join([]string{caller, r.Method, r.URL.Path}, "|")
}

func replay(w http.ResponseWriter, record idempotencyRecord) {
	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.Header().Set(replayHeader, "true")
	w.WriteHeader(record.Status)
	if decoded, err := base64.StdEncoding.DecodeString(record.Body); err == nil {
		_, _ = w.Write(decoded)
	}
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func logFailure(logg *logger.Logger, r *http.Request, msg string, err error) {
	if logg == nil {
		return
	}
	logg.Error(r.Context(), msg, err)
}

type responseCapture struct {
	statusRecorder
	body bytes.Buffer
}

func (c *responseCapture) Write(b []byte) (int, error) {
	c.body.Write(b)
	return c.statusRecorder.Write(b)
}
