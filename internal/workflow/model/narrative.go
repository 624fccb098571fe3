// Package model 定义工作流层的输入输出结构
package model

import "time"

// NarrativeGenerateInput 日记转章节的输入
type NarrativeGenerateInput struct {
	Title        string
	EntryContent string
	StoryTone    string
	Narrator     string

	Provider string
	Model    string

	Temperature *float32
	MaxTokens   *int
}

// GenerationMeta 一次生成调用的模型与用量信息
type GenerationMeta struct {
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Temperature      float64
	GeneratedAt      time.Time
}

// NarrativeGenerateOutput 解析后的章节三元组
type NarrativeGenerateOutput struct {
	Title     string
	Summary   string
	Narrative string
	Meta      GenerationMeta
}
