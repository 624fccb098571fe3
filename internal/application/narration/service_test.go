package narration

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "odyscribe-api/pkg/errors"
)

type memAudioCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func (c *memAudioCache) GetOrLoad(ctx context.Context, key string, _ time.Duration, loader func(ctx context.Context) ([]byte, error)) ([]byte, bool, error) {
	c.mu.Lock()
	if v, ok := c.items[key]; ok {
		c.mu.Unlock()
		return v, true, nil
	}
	c.mu.Unlock()

	v, err := loader(ctx)
	if err != nil {
		return nil, false, err
	}
	c.mu.Lock()
	c.items[key] = v
	c.mu.Unlock()
	return v, false, nil
}

func TestService_NarrateCachesAudio(t *testing.T) {
	synth := &fakeSynth{audio: []byte("mp3-bytes")}
	cache := &memAudioCache{items: map[string][]byte{}}
	svc := NewService(synth, cache, time.Hour)

	for i := 0; i < 2; i++ {
		audio, err := svc.Narrate(context.Background(), chapterText, "peaceful", "stoic-chronicler")
		require.NoError(t, err)
		assert.Equal(t, []byte("mp3-bytes"), audio)
	}

	reqs := synth.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, StripMarkdown(chapterText), reqs[0].Text)
	assert.Equal(t, "peaceful", reqs[0].Tone)
	assert.Len(t, cache.items, 1)
}

func TestService_NothingToNarrate(t *testing.T) {
	synth := &fakeSynth{audio: []byte("x")}
	svc := NewService(synth, nil, 0)

	_, err := svc.Narrate(context.Background(), "**ok**", "", "")
	require.ErrorIs(t, err, apperrors.ErrNothingToNarrate)
	assert.Equal(t, http.StatusBadRequest, apperrors.AsAppError(err).HTTPStatus)
	assert.Empty(t, synth.requests())
}

func TestService_ProviderFailureIsBadGateway(t *testing.T) {
	svc := NewService(&fakeSynth{err: errors.New("quota exceeded")}, &memAudioCache{items: map[string][]byte{}}, time.Hour)

	_, err := svc.Narrate(context.Background(), chapterText, "", "wise-sage")
	require.ErrorIs(t, err, apperrors.ErrTTSUnavailable)
	assert.Equal(t, http.StatusBadGateway, apperrors.AsAppError(err).HTTPStatus)
}

func TestCacheKey(t *testing.T) {
	base := Request{Text: "same words here", Tone: "whimsical", Narrator: "wise-sage"}
	assert.Equal(t, cacheKey(base), cacheKey(base))

	other := base
	other.Narrator = "cheeky-bard"
	assert.NotEqual(t, cacheKey(base), cacheKey(other))

	// 不影响合成参数的基调共用缓存
	sameSettings := base
	sameSettings.Tone = "dark-gothic"
	assert.Equal(t, cacheKey(base), cacheKey(sameSettings))

	peaceful := base
	peaceful.Tone = "peaceful"
	assert.NotEqual(t, cacheKey(base), cacheKey(peaceful))
}
