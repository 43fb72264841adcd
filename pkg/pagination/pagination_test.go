package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 8, time.UTC)

	got, err := ParseCursor(EncodeCursor(Cursor{CreatedAt: at, ID: 42}))
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(at))
	assert.EqualValues(t, 42, got.ID)

	none, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	for _, token := range []string{
		"not base64!",
		base64.RawURLEncoding.EncodeToString([]byte("plain")),
		base64.RawURLEncoding.EncodeToString([]byte(`{"t":5,"i":0}`)),
	} {
		_, err := ParseCursor(token)
		assert.ErrorIs(t, err, errBadCursor, token)
	}
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, MaxLimit, NormalizeLimit(1000))
	assert.Equal(t, 7, NormalizeLimit(7))
}

func TestPageWindow(t *testing.T) {
	cases := []struct {
		page       Page
		start, end int
	}{
		{Page{Offset: 0, Limit: 10}, 0, 10},
		{Page{Offset: 20, Limit: 10}, 20, 25},
		{Page{Offset: 40, Limit: 10}, 25, 25},
		{Page{Offset: -3}, 0, 25},
	}
	for _, tc := range cases {
		start, end := tc.page.Window(25)
		assert.Equal(t, tc.start, start)
		assert.Equal(t, tc.end, end)
	}
}
