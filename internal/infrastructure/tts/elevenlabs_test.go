package tts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"odyscribe-api/internal/application/narration"
	"odyscribe-api/internal/config"
)

func newTestClient(url string, breaker config.BreakerConfig) *Client {
	return NewClient(&config.ElevenLabsConfig{
		APIKey:  "test-key",
		BaseURL: url + "/",
		Timeout: 5 * time.Second,
		Breaker: breaker,
	})
}

func TestSynthesize_SendsProviderRequest(t *testing.T) {
	var (
		gotPath   string
		gotHeader http.Header
		gotBody   map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeader = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3audio"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, config.BreakerConfig{})
	audio, err := c.Synthesize(context.Background(), narration.Request{
		Text:     "The hero pressed on.",
		Tone:     "peaceful",
		Narrator: "cheeky-bard",
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3audio"), audio)

	assert.Equal(t, "/text-to-speech/21m00Tcm4TlvDq8ikWAM", gotPath)
	assert.Equal(t, "test-key", gotHeader.Get("xi-api-key"))
	assert.Equal(t, "audio/mpeg", gotHeader.Get("Accept"))
	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))

	assert.Equal(t, "The hero pressed on.", gotBody["text"])
	assert.Equal(t, "eleven_monolingual_v1", gotBody["model_id"])
	settings, ok := gotBody["voice_settings"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 0.8, settings["stability"], 0.0001)
	assert.InDelta(t, 0.5, settings["similarity_boost"], 0.0001)
}

func TestSynthesize_UnmappedNarratorUsesDefaultVoice(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte("a"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, config.BreakerConfig{}).Synthesize(context.Background(), narration.Request{Text: "x", Tone: "triumphant"})
	require.NoError(t, err)
	assert.Equal(t, "/text-to-speech/EXAVITQu4vr4xnSDxMaL", gotPath)
}

func TestSynthesize_NonSuccessStatusFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":{"status":"quota_exceeded"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, config.BreakerConfig{}).Synthesize(context.Background(), narration.Request{Text: "x"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "quota_exceeded")
}

func TestSynthesize_EmptyAudioFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, config.BreakerConfig{}).Synthesize(context.Background(), narration.Request{Text: "x"})
	assert.ErrorIs(t, err, ErrEmptyAudio)
}

func TestSynthesize_OversizedAudioFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789abcdef"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, config.BreakerConfig{})
	c.maxAudio = 16
	audio, err := c.Synthesize(context.Background(), narration.Request{Text: "x"})
	require.NoError(t, err)
	assert.Len(t, audio, 16)

	c.maxAudio = 8
	_, err = c.Synthesize(context.Background(), narration.Request{Text: "x"})
	assert.ErrorIs(t, err, ErrAudioTooLarge)
}

func TestSynthesize_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, config.BreakerConfig{ConsecutiveFailures: 2, Timeout: time.Minute})
	for i := 0; i < 2; i++ {
		_, err := c.Synthesize(context.Background(), narration.Request{Text: "x"})
		require.Error(t, err)
	}

	_, err := c.Synthesize(context.Background(), narration.Request{Text: "x"})
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(2), hits.Load())
}

func TestSynthesize_MissingAPIKey(t *testing.T) {
	c := NewClient(&config.ElevenLabsConfig{})
	_, err := c.Synthesize(context.Background(), narration.Request{Text: "x"})
	assert.Error(t, err)
}
