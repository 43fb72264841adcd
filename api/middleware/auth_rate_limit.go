package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/servicedesk-backend/api/responses"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
)

// WindowLimiter is the fixed-window counter behind the login limits.
type WindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// LoginRateLimitPolicy holds the fixed-window limits for one auth surface.
type LoginRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int64
	emailLimit int64
}

func NewLoginRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) LoginRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "login"
	}
	return LoginRateLimitPolicy{name: name, window: window, ipLimit: int64(ipLimit), emailLimit: int64(emailLimit)}
}

func (p LoginRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

// bucket is one counter a request is charged against.
type bucket struct {
	scope  string
	limit  int64
	fields map[string]any
}

// buckets lists the counters for r. A body without an email only counts
// against the client address.
func (p LoginRateLimitPolicy) buckets(r *http.Request, body []byte) []bucket {
	var out []bucket
	if ip := clientIP(r); p.ipLimit > 0 && ip != "" {
		out = append(out, bucket{
			scope:  p.name + ":ip:" + ip,
			limit:  p.ipLimit,
			fields: map[string]any{"scope": "ip", "ip": ip},
		})
	}
	if email := emailOf(body); p.emailLimit > 0 && email != "" {
		hash := hashValue(email)
		out = append(out, bucket{
			scope:  p.name + ":email:" + hash,
			limit:  p.emailLimit,
			fields: map[string]any{"scope": "email", "email_hash": hash},
		})
	}
	return out
}

// LoginRateLimit rejects login attempts past the policy's per-IP or per-email
// limit with 429 and a Retry-After of one window.
func LoginRateLimit(policy LoginRateLimitPolicy, store WindowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var body []byte
			if policy.emailLimit > 0 {
				raw, err := io.ReadAll(r.Body)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
					return
				}
				body = raw
				r.Body = io.NopCloser(bytes.NewReader(raw))
			}

			for _, b := range policy.buckets(r, body) {
				allowed, attempts, err := store.FixedWindowAllow(ctx, b.scope, b.limit, policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					policy.reject(ctx, w, logg, b, attempts)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (p LoginRateLimitPolicy) reject(ctx context.Context, w http.ResponseWriter, logg *logger.Logger, b bucket, attempts int64) {
	if logg != nil {
		b.fields["policy"] = p.name
		b.fields["attempts"] = attempts
		b.fields["limit"] = b.limit
		logg.Warn(logg.WithFields(ctx, b.fields), "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(p.window.Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts; try again later"))
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the peer.
func clientIP(r *http.Request) string {
	if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return r.RemoteAddr
	}
	return host
}

func emailOf(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(payload, &body) != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(body.Email))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
