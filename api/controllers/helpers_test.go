package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/servicedesk-backend/api/middleware"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
	"github.com/angelmondragon/servicedesk-backend/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

var staff = types.Actor{UserID: 7, Role: enums.UserRoleStaff}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *types.APIError `json:"error"`
}

// call runs h with an authenticated staff actor and the given URL params.
func call(t *testing.T, h http.HandlerFunc, method, target, body string, params map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	req = req.WithContext(middleware.WithActor(ctx, staff))

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	var env envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return resp, env
}
