// Package narration 实现章节朗读：文本清洗、声音映射、播放会话与服务端合成
package narration

import (
	"regexp"
	"strings"
)

// MinNarratableLength 清洗后少于该字符数的文本不朗读
const MinNarratableLength = 10

var (
	reHeading    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	reBold       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	reItalic     = regexp.MustCompile(`\*(.*?)\*`)
	reImage      = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	reLink       = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	reCode       = regexp.MustCompile("`{1,3}([^`]*)`{1,3}")
	reListMarker = regexp.MustCompile(`(?m)^\s*-\s+`)
	reQuote      = regexp.MustCompile(`(?m)^\s*>\s?`)
	reNewlines   = regexp.MustCompile(`\n+`)
	reSpaces     = regexp.MustCompile(`\s+`)
)

// StripMarkdown 去除 markdown 标记并合并空白，得到适合语音引擎的纯文本
func StripMarkdown(text string) string {
	s := reHeading.ReplaceAllString(text, "")
	s = reBold.ReplaceAllString(s, "$1")
	s = reItalic.ReplaceAllString(s, "$1")
	s = reImage.ReplaceAllString(s, "")
	s = reLink.ReplaceAllString(s, "$1")
	s = reCode.ReplaceAllString(s, "$1")
	s = reListMarker.ReplaceAllString(s, "")
	s = reQuote.ReplaceAllString(s, "")
	s = reNewlines.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// IsNarratable 清洗后的文本是否达到朗读下限
func IsNarratable(plain string) bool {
	return len([]rune(plain)) >= MinNarratableLength
}
