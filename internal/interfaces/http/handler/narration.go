package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"odyscribe-api/internal/interfaces/http/dto"
)

// NarrationHandler 朗读代理处理器
type NarrationHandler struct {
	narrator Narrator
}

// NewNarrationHandler 创建朗读处理器
func NewNarrationHandler(narrator Narrator) *NarrationHandler {
	return &NarrationHandler{narrator: narrator}
}

// Narrate 合成章节音频
// @Summary 朗读合成
// @Description 去除 markdown 后调用 TTS，返回 audio/mpeg；502 时客户端切换系统语音
// @Tags Narration
// @Accept json
// @Produce audio/mpeg
// @Param body body dto.NarrationRequest true "文本与风格"
// @Success 200 {file} binary
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/narration [post]
func (h *NarrationHandler) Narrate(c *gin.Context) {
	var req dto.NarrationRequest
	if !bindJSON(c, &req) {
		return
	}

	audio, err := h.narrator.Narrate(c.Request.Context(), req.Text, req.Tone, req.Narrator)
	if err != nil {
		handleError(c, err, "narration failed")
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, "audio/mpeg", audio)
}
