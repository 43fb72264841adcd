package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		assert.Equal(t, tt.status, meta.HTTPStatus, tt.code)
		assert.Equal(t, tt.publicMsg, meta.PublicMessage, tt.code)
		assert.Equal(t, tt.retryable, meta.Retryable, tt.code)
		assert.Equal(t, tt.detailsOK, meta.DetailsAllowed, tt.code)
	}
}

func TestOnlyCallerFacingCodesExposeMessages(t *testing.T) {
	for _, code := range []Code{CodeValidation, CodeStateConflict, CodeNotFound, CodeForbidden, CodeRateLimit} {
		assert.True(t, MetadataFor(code).CallerFacing, code)
	}
	for _, code := range []Code{CodeInternal, CodeDependency} {
		assert.False(t, MetadataFor(code).CallerFacing, code)
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, MetadataFor("SOMETHING_UNKNOWN").HTTPStatus)
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing remark")
	assert.Equal(t, CodeValidation, base.Code())
	assert.Equal(t, "missing remark", base.Message())
	assert.Nil(t, base.Details())

	base.WithDetails(map[string]any{"field": "remark"})
	assert.NotNil(t, base.Details())

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, CodeConflict, wrapped.Code())
	assert.Contains(t, wrapped.Error(), "boom")

	assert.Equal(t, "request 4 is closed", Newf(CodeStateConflict, "request %d is closed", 4).Message())
}

func TestAsAndIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeForbidden, "no entry"))
	got := As(err)
	require.NotNil(t, got)
	assert.Equal(t, CodeForbidden, got.Code())
	assert.True(t, IsCode(err, CodeForbidden))
	assert.False(t, IsCode(err, CodeNotFound))
	assert.Nil(t, As(nil))
}

func TestFromRepo(t *testing.T) {
	assert.NoError(t, FromRepo(nil, "assignment", 1))

	notFound := FromRepo(gorm.ErrRecordNotFound, "assignment", 9)
	assert.True(t, IsCode(notFound, CodeNotFound))
	assert.Equal(t, "assignment 9 not found", As(notFound).Message())

	coded := New(CodeStateConflict, "nope")
	assert.Same(t, coded, FromRepo(coded, "assignment", 1))

	dependency := FromRepo(stdErrors.New("conn reset"), "booking", 2)
	assert.True(t, IsCode(dependency, CodeDependency))
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeInternal, stdErrors.New("disk full"), "save booking")
	d := Dump(err)
	assert.Equal(t, CodeInternal, d.Code)
	assert.Len(t, d.Chain, 2)
	assert.Empty(t, d.PGCode)
}
