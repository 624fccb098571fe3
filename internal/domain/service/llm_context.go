// Package service 提供跨层共享的领域上下文工具
package service

import (
	"context"
	"strings"
)

// WorkflowNarrative 日记转章节工作流
const WorkflowNarrative = "narrative_chapter"

const unknownLabel = "unknown"

// LLMCall 一次模型调用的归属信息，供回调打标签
type LLMCall struct {
	Workflow string
	Provider string
}

type llmCallKey struct{}

// WithLLMCall 记录本次调用所属的工作流与提供商
func WithLLMCall(ctx context.Context, workflow, provider string) context.Context {
	return context.WithValue(ctx, llmCallKey{}, LLMCall{
		Workflow: strings.TrimSpace(workflow),
		Provider: strings.TrimSpace(provider),
	})
}

// LLMCallFrom 读取调用归属信息，缺失字段以 unknown 填充
func LLMCallFrom(ctx context.Context) LLMCall {
	call, _ := ctx.Value(llmCallKey{}).(LLMCall)
	if call.Workflow == "" {
		call.Workflow = unknownLabel
	}
	if call.Provider == "" {
		call.Provider = unknownLabel
	}
	return call
}
