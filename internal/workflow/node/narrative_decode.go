package node

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoJSONObject 输出中没有成对的花括号
	ErrNoJSONObject = errors.New("no json object found in model reply")
	// ErrMalformedJSON 截取的片段不是合法 JSON 对象
	ErrMalformedJSON = errors.New("model reply is not valid json")
	// ErrIncompleteNarrative 缺少 title/summary/narrative 之一
	ErrIncompleteNarrative = errors.New("model reply is missing required keys")
)

// Narrative 模型返回的章节三元组
type Narrative struct {
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Narrative string `json:"narrative"`
}

// DecodeNarrative 解析模型回复。三个键均须为非空字符串，多余的键被忽略。
func DecodeNarrative(reply string) (*Narrative, error) {
	block, ok := ExtractJSONObject(reply)
	if !ok {
		return nil, ErrNoJSONObject
	}

	var out Narrative
	if err := json.Unmarshal([]byte(block), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	var missing []string
	if strings.TrimSpace(out.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(out.Summary) == "" {
		missing = append(missing, "summary")
	}
	if strings.TrimSpace(out.Narrative) == "" {
		missing = append(missing, "narrative")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrIncompleteNarrative, strings.Join(missing, ", "))
	}
	return &out, nil
}
