package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"odyscribe-api/internal/config"
)

func newTestFactory() *EinoFactory {
	return NewEinoFactory(&config.Config{
		LLM: config.LLMConfig{
			DefaultProvider: "nebius",
			Providers: map[string]config.ProviderConfig{
				"nebius": {
					APIKey:      "test-key",
					BaseURL:     "https://api.studio.nebius.com/v1/",
					Model:       "meta-llama/Meta-Llama-3.1-70B-Instruct",
					MaxTokens:   1500,
					Temperature: 0.8,
					Timeout:     time.Minute,
				},
				"keyless": {Model: "gpt-4o-mini"},
			},
		},
	})
}

func TestEinoFactory_ResolveDefault(t *testing.T) {
	f := newTestFactory()

	name, cfg, err := f.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "nebius", name)
	assert.Equal(t, 1500, cfg.MaxTokens)

	_, _, err = f.Resolve("missing")
	assert.Error(t, err)
}

func TestEinoFactory_ChatModelIsCached(t *testing.T) {
	f := newTestFactory()
	ctx := context.Background()

	first, name, err := f.ChatModel(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "nebius", name)

	second, _, err := f.ChatModel(ctx, "nebius")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestEinoFactory_ChatModelRequiresAPIKey(t *testing.T) {
	_, name, err := newTestFactory().ChatModel(context.Background(), "keyless")
	assert.Equal(t, "keyless", name)
	assert.ErrorContains(t, err, "no api key")
}
