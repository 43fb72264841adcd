package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := log.WithRequestID(context.Background(), "req-123")
	ctx = log.WithUserID(ctx, 42)

	log.Error(ctx, "boom", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-123"`)
	assert.Contains(t, out, `"user_id":42`)
	assert.Contains(t, out, `"stack"`)
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf, WarnStack: true})
	log.Warn(context.Background(), "warny")
	assert.Contains(t, buf.String(), `"stack"`)

	buf.Reset()
	quiet := New(Options{ServiceName: "test", Output: buf})
	quiet.Warn(context.Background(), "warny")
	assert.NotContains(t, buf.String(), `"stack"`)
}

func TestLoggerFieldsDoNotLeakAcrossContexts(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})

	base := context.Background()
	_ = log.WithFields(base, map[string]any{"assignment_id": 7})
	log.Info(base, "plain")

	assert.NotContains(t, buf.String(), "assignment_id")
}

func TestParseLevelDefaults(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("invalid"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
}

func TestLevelFiltersBelowThreshold(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: zerolog.WarnLevel, Output: buf})
	log.Info(context.Background(), "hidden")
	assert.Empty(t, buf.String())
}
