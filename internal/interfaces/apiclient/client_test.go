package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"odyscribe-api/internal/application/narration"
	"odyscribe-api/internal/interfaces/http/dto"
)

func TestChapter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chapters/ch-1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(dto.ChapterResponse{ID: "ch-1", Title: "The Hound", Content: "Once...", StoryTone: "whimsical"})
	}))
	defer srv.Close()

	ch, err := New(srv.URL+"/", "tok", time.Second).Chapter(context.Background(), "ch-1")
	require.NoError(t, err)
	assert.Equal(t, "The Hound", ch.Title)
	assert.Equal(t, "whimsical", ch.StoryTone)
}

func TestSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body dto.NarrationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, dto.NarrationRequest{Text: "Once upon a time", Tone: "peaceful", Narrator: "wise-sage"}, body)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3"))
	}))
	defer srv.Close()

	audio, err := New(srv.URL, "tok", time.Second).Synthesize(context.Background(),
		narration.Request{Text: "Once upon a time", Tone: "peaceful", Narrator: "wise-sage"})
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3"), audio)
}

func TestErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/narration":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":"Text-to-speech provider unavailable"}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
		}
	}))
	defer srv.Close()
	c := New(srv.URL, "", time.Second)

	_, err := c.Synthesize(context.Background(), narration.Request{Text: "Once upon a time"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "Text-to-speech provider unavailable", apiErr.Message)

	_, err = c.Chapters(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}
