package handler

import (
	"github.com/gin-gonic/gin"

	"odyscribe-api/internal/interfaces/http/dto"
)

// ProfileHandler 个人主页处理器
type ProfileHandler struct {
	entries EntryService
}

// NewProfileHandler 创建个人主页处理器
func NewProfileHandler(entries EntryService) *ProfileHandler {
	return &ProfileHandler{entries: entries}
}

// Stats 写作统计
// @Summary 写作统计
// @Tags Profile
// @Produce json
// @Success 200 {object} dto.StatsResponse
// @Router /v1/profile/stats [get]
func (h *ProfileHandler) Stats(c *gin.Context) {
	stats, err := h.entries.Stats(c.Request.Context(), currentUser(c))
	if err != nil {
		handleError(c, err, "failed to load profile stats")
		return
	}
	dto.OK(c, dto.ToStatsResponse(stats))
}
