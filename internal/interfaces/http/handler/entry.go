package handler

import (
	"github.com/gin-gonic/gin"

	"odyscribe-api/internal/interfaces/http/dto"
)

// EntryHandler 日记条目处理器
type EntryHandler struct {
	entries EntryService
}

// NewEntryHandler 创建条目处理器
func NewEntryHandler(entries EntryService) *EntryHandler {
	return &EntryHandler{entries: entries}
}

// ListEntries 获取条目列表
// @Summary 获取条目列表
// @Description 当前用户的条目，默认按创建时间倒序
// @Tags Entries
// @Produce json
// @Param mood query string false "心情"
// @Param q query string false "标题或正文关键字"
// @Param sort query string false "newest 或 oldest"
// @Param drafts query bool false "仅草稿或仅非草稿"
// @Param page query int false "页码"
// @Param page_size query int false "每页条数"
// @Success 200 {object} dto.EntryListResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /v1/entries [get]
func (h *EntryHandler) ListEntries(c *gin.Context) {
	page := dto.BindOptionalPage(c)
	result, err := h.entries.List(c.Request.Context(), currentUser(c), dto.BindEntryFilter(c), page)
	if err != nil {
		handleError(c, err, "failed to list entries")
		return
	}

	resp := dto.EntryListResponse{Entries: dto.ToEntryResponses(result.Items)}
	if page != nil {
		resp.Meta = dto.NewPageMeta(result)
	}
	dto.OK(c, resp)
}

// CreateEntry 创建条目
// @Summary 创建条目
// @Tags Entries
// @Accept json
// @Produce json
// @Param body body dto.CreateEntryRequest true "条目内容"
// @Success 201 {object} dto.EntryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/entries [post]
func (h *EntryHandler) CreateEntry(c *gin.Context) {
	var req dto.CreateEntryRequest
	if !bindJSON(c, &req) {
		return
	}

	entry, err := h.entries.Create(c.Request.Context(), currentUser(c), req.ToInput())
	if err != nil {
		handleError(c, err, "failed to create entry")
		return
	}
	dto.Created(c, dto.ToEntryResponse(entry))
}

// GetEntry 获取条目
// @Summary 获取条目
// @Tags Entries
// @Produce json
// @Param id path string true "条目 ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/entries/{id} [get]
func (h *EntryHandler) GetEntry(c *gin.Context) {
	entry, err := h.entries.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		handleError(c, err, "failed to get entry")
		return
	}
	dto.OK(c, dto.ToEntryResponse(entry))
}

// UpdateEntry 更新条目
// @Summary 更新条目
// @Tags Entries
// @Accept json
// @Produce json
// @Param id path string true "条目 ID"
// @Param body body dto.UpdateEntryRequest true "更新字段"
// @Success 200 {object} dto.EntryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/entries/{id} [put]
func (h *EntryHandler) UpdateEntry(c *gin.Context) {
	var req dto.UpdateEntryRequest
	if !bindJSON(c, &req) {
		return
	}

	entry, err := h.entries.Update(c.Request.Context(), currentUser(c), c.Param("id"), req.ToPatch())
	if err != nil {
		handleError(c, err, "failed to update entry")
		return
	}
	dto.OK(c, dto.ToEntryResponse(entry))
}

// DeleteEntry 删除条目
// @Summary 删除条目
// @Description 关联章节保留，entry_id 置空
// @Tags Entries
// @Produce json
// @Param id path string true "条目 ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/entries/{id} [delete]
func (h *EntryHandler) DeleteEntry(c *gin.Context) {
	if err := h.entries.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		handleError(c, err, "failed to delete entry")
		return
	}
	dto.Message(c, "Entry deleted successfully")
}
