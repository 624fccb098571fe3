// Package prompt 管理内嵌的提示词模板
package prompt

import (
	"embed"
	"fmt"
	"strings"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

// PromptID 模板标识，对应 templates/<id>.system.txt 与 templates/<id>.user.txt
type PromptID string

const (
	PromptNarrativeChapterV1 PromptID = "narrative_chapter_v1"
)

var knownPrompts = []PromptID{PromptNarrativeChapterV1}

// Registry 启动时解析全部模板，之后只读
type Registry struct {
	templates map[PromptID]einoprompt.ChatTemplate
	loadErr   error
}

// NewRegistry 解析内嵌模板，错误延迟到 ChatTemplate 调用时返回
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[PromptID]einoprompt.ChatTemplate, len(knownPrompts))}
	for _, id := range knownPrompts {
		tpl, err := load(id)
		if err != nil {
			r.loadErr = err
			return r
		}
		r.templates[id] = tpl
	}
	return r
}

// ChatTemplate 返回系统+用户两段消息组成的模板
func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	tpl, ok := r.templates[id]
	if !ok {
		return nil, fmt.Errorf("unknown prompt id: %s", id)
	}
	return tpl, nil
}

func load(id PromptID) (einoprompt.ChatTemplate, error) {
	system, err := readPart(id, "system")
	if err != nil {
		return nil, err
	}
	user, err := readPart(id, "user")
	if err != nil {
		return nil, err
	}
	return einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	), nil
}

func readPart(id PromptID, part string) (string, error) {
	path := fmt.Sprintf("templates/%s.%s.txt", id, part)
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt %s: %w", path, err)
	}
	text := strings.TrimSpace(string(b))
	if text == "" {
		return "", fmt.Errorf("prompt %s is empty", path)
	}
	return text, nil
}
