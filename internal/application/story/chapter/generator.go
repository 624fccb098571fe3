// Package chapter 实现日记转章节的生成、编排与编辑用例
package chapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"odyscribe-api/internal/domain/entity"
	workflowchain "odyscribe-api/internal/workflow/chain"
	wfmodel "odyscribe-api/internal/workflow/model"
	"odyscribe-api/internal/workflow/node"
	workflowport "odyscribe-api/internal/workflow/port"
	apperrors "odyscribe-api/pkg/errors"
	"odyscribe-api/pkg/logger"
	"odyscribe-api/pkg/metrics"
)

// rawReplyLogLimit 解析失败时记录的原始回复长度上限
const rawReplyLogLimit = 4000

// NarrativeGenerator 叙事生成端口，编排器与 HTTP 处理器依赖此接口
type NarrativeGenerator interface {
	Generate(ctx context.Context, in *wfmodel.NarrativeGenerateInput) (*wfmodel.NarrativeGenerateOutput, error)
}

// GeneratorOptions 模型调用参数
type GeneratorOptions struct {
	Provider    string
	Model       string
	Temperature float32
	MaxTokens   int
}

// Generator 将日记内容交给大模型生成章节
type Generator struct {
	chain *workflowchain.NarrativeChain
	opts  GeneratorOptions
}

// NewGenerator 创建叙事生成器
func NewGenerator(models workflowport.ChatModelSource, opts GeneratorOptions) *Generator {
	return &Generator{
		chain: workflowchain.NewNarrativeChain(models),
		opts:  opts,
	}
}

// Generate 校验输入、调用模型一次并解析回复
//
// 缺字段返回 ErrMissingField；调用失败返回 ErrGenerationUnavailable；
// 回复无法解析返回 ErrGenerationParse。不做自动重试。
func (g *Generator) Generate(ctx context.Context, in *wfmodel.NarrativeGenerateInput) (*wfmodel.NarrativeGenerateOutput, error) {
	if in == nil ||
		strings.TrimSpace(in.EntryContent) == "" ||
		strings.TrimSpace(in.StoryTone) == "" ||
		strings.TrimSpace(in.Narrator) == "" {
		return nil, apperrors.ErrMissingField
	}
	if !entity.StoryTone(in.StoryTone).IsValid() {
		return nil, apperrors.New(apperrors.CodeInvalidParam, fmt.Sprintf("Invalid storyTone: %s", in.StoryTone))
	}
	if !entity.Narrator(in.Narrator).IsValid() {
		return nil, apperrors.New(apperrors.CodeInvalidParam, fmt.Sprintf("Invalid narrator: %s", in.Narrator))
	}

	req := *in
	if req.Provider == "" {
		req.Provider = g.opts.Provider
	}
	if req.Model == "" {
		req.Model = g.opts.Model
	}
	if req.Temperature == nil && g.opts.Temperature > 0 {
		t := g.opts.Temperature
		req.Temperature = &t
	}
	if req.MaxTokens == nil && g.opts.MaxTokens > 0 {
		m := g.opts.MaxTokens
		req.MaxTokens = &m
	}

	start := time.Now()
	defer func() {
		metrics.ChapterGenerationDuration.WithLabelValues(req.StoryTone).Observe(time.Since(start).Seconds())
	}()

	outMsg, err := g.chain.Invoke(ctx, &req)
	if err != nil {
		metrics.ChapterGenerationTotal.WithLabelValues(req.StoryTone, "unavailable").Inc()
		logger.Error(ctx, "narrative generation unavailable", err,
			"provider", req.Provider,
			"story_tone", req.StoryTone,
			"narrator", req.Narrator,
		)
		return nil, apperrors.ErrGenerationUnavailable.WithError(err)
	}

	parsed, err := node.DecodeNarrative(outMsg.Content)
	if err != nil {
		metrics.ChapterGenerationTotal.WithLabelValues(req.StoryTone, "parse_error").Inc()
		logger.Error(ctx, "narrative reply could not be parsed", err,
			"provider", req.Provider,
			"raw_reply", node.Excerpt(outMsg.Content, rawReplyLogLimit),
		)
		return nil, apperrors.ErrGenerationParse.WithError(err)
	}

	meta := wfmodel.GenerationMeta{
		Provider:    req.Provider,
		Model:       req.Model,
		GeneratedAt: time.Now().UTC(),
	}
	if req.Temperature != nil {
		meta.Temperature = float64(*req.Temperature)
	}
	if outMsg.ResponseMeta != nil && outMsg.ResponseMeta.Usage != nil {
		meta.PromptTokens = outMsg.ResponseMeta.Usage.PromptTokens
		meta.CompletionTokens = outMsg.ResponseMeta.Usage.CompletionTokens
	}

	metrics.ChapterGenerationTotal.WithLabelValues(req.StoryTone, "success").Inc()
	metrics.ChapterNarrativeLength.WithLabelValues(req.Narrator).Observe(float64(len([]rune(parsed.Narrative))))

	return &wfmodel.NarrativeGenerateOutput{
		Title:     parsed.Title,
		Summary:   parsed.Summary,
		Narrative: parsed.Narrative,
		Meta:      meta,
	}, nil
}
