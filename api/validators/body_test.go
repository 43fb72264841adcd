package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleBody struct {
	Name    string `json:"name" validate:"required,notblank,max=5"`
	Minutes int    `json:"minutes" validate:"gte=0"`
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestDecodeJSONBody(t *testing.T) {
	var dest sampleBody
	require.NoError(t, DecodeJSONBody(post(`{"name":"Lea","minutes":3}`), &dest))
	assert.Equal(t, sampleBody{Name: "Lea", Minutes: 3}, dest)
}

func TestDecodeJSONBodyRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"empty":    "",
		"unknown":  `{"name":"Lea","extra":1}`,
		"trailing": `{"name":"Lea"} {"name":"Bo"}`,
		"syntax":   `{"name":`,
		"too big":  `{"name":"` + strings.Repeat("a", MaxBodyBytes) + `"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			var dest sampleBody
			err := DecodeJSONBody(post(body), &dest)
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
			assert.Equal(t, "invalid request body", pkgerrors.As(err).Message())
		})
	}
}

func TestDecodeJSONBodyReportsFieldsByJSONName(t *testing.T) {
	var dest sampleBody
	err := DecodeJSONBody(post(`{"name":"   ","minutes":-1}`), &dest)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, map[string]string{
		"name":    "is required",
		"minutes": "must be at least 0",
	}, pkgerrors.As(err).Details())

	var fresh sampleBody
	err = DecodeJSONBody(post(`{"name":"toolong"}`), &fresh)
	assert.Equal(t, map[string]string{"name": "must be at most 5"}, pkgerrors.As(err).Details())
}
