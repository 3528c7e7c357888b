package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests replace the global logger, so they do not run in parallel.

func TestInit_JSONWithSessionField(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: "debug", Format: "json", Output: &buf}))
	t.Cleanup(func() { _ = Init(Config{}) })

	WithSession("s-1").Debug("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "s-1", line["session"])
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, logrus.DebugLevel, L().GetLevel())
}

func TestInit_RejectsUnknownLevel(t *testing.T) {
	before := L()
	err := Init(Config{Level: "loud"})
	assert.Error(t, err)
	assert.Same(t, before, L())
}

func TestLogPanic_IncludesStack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Output: &buf}))
	t.Cleanup(func() { _ = Init(Config{}) })

	LogPanic("boom")
	assert.Contains(t, buf.String(), "boom")
	assert.Contains(t, buf.String(), "stack=")
}
