package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	llmctx "odyscribe-api/internal/domain/service"
	wfmodel "odyscribe-api/internal/workflow/model"
	workflowport "odyscribe-api/internal/workflow/port"
	workflowprompt "odyscribe-api/internal/workflow/prompt"
)

const untitledEntry = "Untitled Entry"

// narratorDescriptions 叙述者人设的语气说明
var narratorDescriptions = map[string]string{
	"wise-sage":        "Ancient wisdom, poetic, mentor-like.",
	"cheeky-bard":      "Playful, witty, light-hearted commentary.",
	"stoic-chronicler": "Formal, historian-like.",
}

// toneGuidance 故事基调的写作提示
var toneGuidance = map[string]string{
	"epic-fantasy":  "Grand stakes, heroic imagery, quests and ancient powers.",
	"whimsical":     "Gentle humor, curious creatures, a light fairy-tale touch.",
	"dark-gothic":   "Brooding atmosphere, shadows and candlelight, quiet dread.",
	"casual-modern": "Contemporary, conversational, grounded in everyday detail.",
}

// NarrativeChain 日记转章节的提示词渲染与模型调用
type NarrativeChain struct {
	models   workflowport.ChatModelSource
	registry *workflowprompt.Registry
}

// NewNarrativeChain 创建叙事调用链
func NewNarrativeChain(models workflowport.ChatModelSource) *NarrativeChain {
	return &NarrativeChain{
		models:   models,
		registry: workflowprompt.NewRegistry(),
	}
}

// Invoke 构造提示词并调用模型一次，不做重试
func (c *NarrativeChain) Invoke(ctx context.Context, in *wfmodel.NarrativeGenerateInput) (*schema.Message, error) {
	if c == nil || c.models == nil {
		return nil, fmt.Errorf("chat model source not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	chatModel, provider, err := c.models.ChatModel(ctx, strings.TrimSpace(in.Provider))
	if err != nil {
		return nil, err
	}
	ctx = llmctx.WithLLMCall(ctx, llmctx.WorkflowNarrative, provider)

	msgs, err := c.FormatMessages(ctx, in)
	if err != nil {
		return nil, err
	}

	outMsg, err := chatModel.Generate(ctx, msgs, buildNarrativeModelOptions(in)...)
	if err != nil {
		return nil, err
	}
	if outMsg == nil {
		return nil, fmt.Errorf("empty llm response")
	}
	return outMsg, nil
}

// FormatMessages 渲染系统与用户消息
func (c *NarrativeChain) FormatMessages(ctx context.Context, in *wfmodel.NarrativeGenerateInput) ([]*schema.Message, error) {
	tpl, err := c.registry.ChatTemplate(workflowprompt.PromptNarrativeChapterV1)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = untitledEntry
	}
	narrator := strings.TrimSpace(in.Narrator)
	tone := strings.TrimSpace(in.StoryTone)

	vars := map[string]any{
		"story_tone":           tone,
		"tone_guidance":        lookupOr(toneGuidance, tone, "Match the tone's name."),
		"narrator":             narrator,
		"narrator_description": lookupOr(narratorDescriptions, narrator, "A thoughtful storyteller."),
		"entry_title":          title,
		"entry_content":        strings.TrimSpace(in.EntryContent),
	}
	return tpl.Format(ctx, vars)
}

func buildNarrativeModelOptions(in *wfmodel.NarrativeGenerateInput) []model.Option {
	opts := make([]model.Option, 0, 3)
	if in.Temperature != nil {
		opts = append(opts, model.WithTemperature(*in.Temperature))
	}
	if in.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*in.MaxTokens))
	}
	if strings.TrimSpace(in.Model) != "" {
		opts = append(opts, model.WithModel(strings.TrimSpace(in.Model)))
	}
	return opts
}

func lookupOr(m map[string]string, key, fallback string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}
