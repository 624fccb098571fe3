package dto

// NarrationRequest 朗读合成请求
type NarrationRequest struct {
	Text     string `json:"text"`
	Tone     string `json:"tone"`
	Narrator string `json:"narrator"`
}
