package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
	"github.com/angelmondragon/servicedesk-backend/pkg/types"
)

type fakeStore struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.data[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func completeRequest(key, body string, userID uint) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments/4/complete", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	if userID != 0 {
		req = req.WithContext(WithActor(req.Context(), types.Actor{UserID: userID}))
	}
	return req
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	called := false
	handler := Idempotency(newFakeStore(), time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, completeRequest("", `{}`, 1))
	if resp.Code != http.StatusBadRequest || called {
		t.Fatalf("expected 400 without running the handler, got %d (called=%v)", resp.Code, called)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{"status":"Completed"}}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, completeRequest("k1", `{"resolution":"fixed"}`, 1))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, completeRequest("k1", `{"resolution":"fixed"}`, 1))

	if calls != 1 {
		t.Fatalf("handler ran %d times", calls)
	}
	if second.Code != http.StatusOK || strings.TrimSpace(second.Body.String()) != `{"data":{"status":"Completed"}}` {
		t.Fatalf("unexpected replay %d %s", second.Code, second.Body.String())
	}
	if second.Header().Get("Idempotent-Replayed") != "true" || second.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("replay headers missing: %v", second.Header())
	}
	for _, ttl := range store.ttls {
		if ttl != time.Hour {
			t.Fatalf("expected configured ttl, got %s", ttl)
		}
	}
}

func TestIdempotencyKeysAreScopedPerCaller(t *testing.T) {
	calls := 0
	handler := Idempotency(newFakeStore(), time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), completeRequest("same", `{}`, 1))
	handler.ServeHTTP(httptest.NewRecorder(), completeRequest("same", `{}`, 2))
	if calls != 2 {
		t.Fatalf("expected both callers to reach the handler, got %d", calls)
	}
}

func TestIdempotencyDetectsBodyChange(t *testing.T) {
	handler := Idempotency(newFakeStore(), time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), completeRequest("k2", `{"resolution":"a"}`, 1))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, completeRequest("k2", `{"resolution":"b"}`, 1))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var payload types.ErrorEnvelope
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected %s got %s", pkgerrors.CodeIdempotency, payload.Error.Code)
	}
}

func TestIdempotencyDoesNotStoreServerErrors(t *testing.T) {
	calls := 0
	handler := Idempotency(newFakeStore(), time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), completeRequest("k3", `{}`, 1))
	handler.ServeHTTP(httptest.NewRecorder(), completeRequest("k3", `{}`, 1))
	if calls != 2 {
		t.Fatalf("expected retry after a 503, handler ran %d times", calls)
	}
}
