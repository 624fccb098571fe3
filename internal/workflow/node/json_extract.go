package node

import "strings"

// ExtractJSONObject 截取模型输出中第一个 '{' 到最后一个 '}' 之间的子串。
// 模型可能在 JSON 前后夹杂多余文本；找不到成对括号时返回 ok=false。
func ExtractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}
