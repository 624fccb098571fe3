package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmctx "odyscribe-api/internal/domain/service"
	wfmodel "odyscribe-api/internal/workflow/model"
)

type recordingModel struct {
	msgs []*schema.Message
	call llmctx.LLMCall
}

func (m *recordingModel) Generate(ctx context.Context, msgs []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.msgs = msgs
	m.call = llmctx.LLMCallFrom(ctx)
	return schema.AssistantMessage(`{"title":"t","summary":"s","narrative":"n"}`, nil), nil
}

func (m *recordingModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

type staticSource struct {
	model *recordingModel
	err   error
}

func (s staticSource) ChatModel(_ context.Context, provider string) (model.BaseChatModel, string, error) {
	if provider == "" {
		provider = "nebius"
	}
	return s.model, provider, s.err
}

func TestNarrativeChain_FormatMessages(t *testing.T) {
	c := NewNarrativeChain(staticSource{})

	msgs, err := c.FormatMessages(context.Background(), &wfmodel.NarrativeGenerateInput{
		EntryContent: "  Fixed the leaking sink {finally}.  ",
		StoryTone:    "whimsical",
		Narrator:     "cheeky-bard",
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Hero's Journey")

	user := msgs[1].Content
	assert.Contains(t, user, "Story tone: whimsical")
	assert.Contains(t, user, "Gentle humor")
	assert.Contains(t, user, "Playful, witty")
	assert.Contains(t, user, "Original title: Untitled Entry")
	assert.Contains(t, user, "Fixed the leaking sink {finally}.")
}

func TestNarrativeChain_InvokeTagsResolvedProvider(t *testing.T) {
	m := &recordingModel{}
	c := NewNarrativeChain(staticSource{model: m})

	out, err := c.Invoke(context.Background(), &wfmodel.NarrativeGenerateInput{
		Title:        "Monday",
		EntryContent: "Went running in the rain.",
		StoryTone:    "epic-fantasy",
		Narrator:     "wise-sage",
	})
	require.NoError(t, err)
	assert.Contains(t, out.Content, `"title"`)
	assert.Len(t, m.msgs, 2)
	assert.Equal(t, llmctx.LLMCall{Workflow: llmctx.WorkflowNarrative, Provider: "nebius"}, m.call)
}

func TestNarrativeChain_InvokeSourceError(t *testing.T) {
	c := NewNarrativeChain(staticSource{err: errors.New("no key")})

	_, err := c.Invoke(context.Background(), &wfmodel.NarrativeGenerateInput{EntryContent: "x"})
	assert.EqualError(t, err, "no key")
}
