package narration

import (
	"strings"

	"odyscribe-api/internal/domain/entity"
)

// defaultNarrator 未映射的叙述者回落到该声音
const defaultNarrator = entity.NarratorWiseSage

var narratorVoices = map[entity.Narrator]string{
	entity.NarratorWiseSage:        "EXAVITQu4vr4xnSDxMaL",
	entity.NarratorCheekyBard:      "21m00Tcm4TlvDq8ikWAM",
	entity.NarratorStoicChronicler: "AZnzlk1XvdvUeBnXmlld",
}

// 系统声音的名称/语言提示，按顺序匹配
var narratorVoiceHints = map[entity.Narrator][]string{
	entity.NarratorWiseSage:        {"Google UK English Male", "en-gb"},
	entity.NarratorCheekyBard:      {"Google US English", "en-us"},
	entity.NarratorStoicChronicler: {"Google UK English Female", "en-gb"},
}

// Request 一次朗读合成请求
type Request struct {
	Text     string
	Tone     string
	Narrator string
}

// VoiceSettings 远端合成参数
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// VoiceID 叙述者对应的远端声音 ID
func VoiceID(narrator string) string {
	if id, ok := narratorVoices[entity.Narrator(narrator)]; ok {
		return id
	}
	return narratorVoices[defaultNarrator]
}

// SettingsForTone 按基调调整稳定度与相似度
func SettingsForTone(tone string) VoiceSettings {
	vs := VoiceSettings{Stability: 0.4, SimilarityBoost: 0.5}
	if tone == "peaceful" {
		vs.Stability = 0.8
	}
	if tone == "triumphant" {
		vs.SimilarityBoost = 0.75
	}
	return vs
}

// Voice 系统语音合成器提供的声音
type Voice struct {
	Name    string
	Lang    string
	Default bool
}

// PickSystemVoice 为回落朗读挑选声音：人设提示、英语、默认、第一个
func PickSystemVoice(voices []Voice, narrator string) (Voice, bool) {
	if len(voices) == 0 {
		return Voice{}, false
	}

	hints := narratorVoiceHints[entity.Narrator(narrator)]
	if hints == nil {
		hints = narratorVoiceHints[defaultNarrator]
	}
	for _, hint := range hints {
		h := strings.ToLower(hint)
		for _, v := range voices {
			if strings.Contains(strings.ToLower(v.Name), h) || strings.EqualFold(v.Lang, hint) {
				return v, true
			}
		}
	}
	for _, v := range voices {
		if strings.HasPrefix(strings.ToLower(v.Lang), "en") {
			return v, true
		}
	}
	for _, v := range voices {
		if v.Default {
			return v, true
		}
	}
	return voices[0], true
}
