package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContextCarriesKeys(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "debug", "json")
	t.Cleanup(func() { Init("info", "json") })

	ctx := WithContext(context.Background(), RequestIDKey, "req-1")
	ctx = WithContext(ctx, EntryIDKey, "entry-9")
	Error(ctx, "failed to generate chapter", errors.New("boom"), "provider", "nebius")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "req-1", rec["request_id"])
	assert.Equal(t, "entry-9", rec["entry_id"])
	assert.Equal(t, "boom", rec["error"])
	assert.Equal(t, "nebius", rec["provider"])
	assert.Equal(t, "ERROR", rec["level"])
}

func TestParseLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "warn", "text")
	t.Cleanup(func() { Init("info", "json") })

	Info(context.Background(), "hidden")
	assert.Empty(t, buf.String())
	Warn(context.Background(), "shown")
	assert.Contains(t, buf.String(), "shown")
}
