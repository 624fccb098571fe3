package handler

import (
	"github.com/gin-gonic/gin"

	"odyscribe-api/internal/domain/entity"
	"odyscribe-api/internal/interfaces/http/dto"
	"odyscribe-api/pkg/logger"
)

// ChapterHandler 章节处理器
type ChapterHandler struct {
	chapters     ChapterService
	orchestrator ChapterOrchestrator
}

// NewChapterHandler 创建章节处理器
func NewChapterHandler(chapters ChapterService, orchestrator ChapterOrchestrator) *ChapterHandler {
	return &ChapterHandler{chapters: chapters, orchestrator: orchestrator}
}

// PrepareChapter 选择基调与叙述者
// @Summary 准备章节草稿
// @Description 为条目创建草稿章节，或重置已有章节的基调与叙述者
// @Tags Chapters
// @Accept json
// @Produce json
// @Param id path string true "条目 ID"
// @Param body body dto.PrepareChapterRequest true "基调与叙述者"
// @Success 200 {object} dto.ChapterResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/entries/{id}/chapter [post]
func (h *ChapterHandler) PrepareChapter(c *gin.Context) {
	var req dto.PrepareChapterRequest
	if !bindJSON(c, &req) {
		return
	}

	ch, err := h.chapters.PrepareDraft(c.Request.Context(), currentUser(c), c.Param("id"),
		entity.StoryTone(req.StoryTone), entity.Narrator(req.Narrator))
	if err != nil {
		handleError(c, err, "failed to prepare chapter")
		return
	}
	dto.OK(c, dto.ToChapterResponse(ch, nil))
}

// GenerateChapter 为条目生成章节
// @Summary 生成章节
// @Description 读取条目与草稿章节，调用模型并持久化结果
// @Tags Chapters
// @Produce json
// @Param id path string true "条目 ID"
// @Success 200 {object} dto.ChapterResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/entries/{id}/chapter/generate [post]
func (h *ChapterHandler) GenerateChapter(c *gin.Context) {
	ctx := logger.WithContext(c.Request.Context(), logger.EntryIDKey, c.Param("id"))

	result, err := h.orchestrator.Generate(ctx, currentUser(c), c.Param("id"))
	if err != nil {
		handleError(c, err, "chapter generation failed")
		return
	}
	dto.OK(c, dto.ToChapterResponse(result.Chapter, result.Entry))
}

// ListChapters 获取章节列表
// @Summary 获取章节列表
// @Description 故事书时间线，按创建时间倒序
// @Tags Chapters
// @Produce json
// @Success 200 {object} dto.ChapterListResponse
// @Router /v1/chapters [get]
func (h *ChapterHandler) ListChapters(c *gin.Context) {
	chapters, err := h.chapters.List(c.Request.Context(), currentUser(c))
	if err != nil {
		handleError(c, err, "failed to list chapters")
		return
	}
	dto.OK(c, dto.ToChapterListResponse(chapters))
}

// GetChapter 获取章节
// @Summary 获取章节
// @Tags Chapters
// @Produce json
// @Param id path string true "章节 ID"
// @Success 200 {object} dto.ChapterResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/chapters/{id} [get]
func (h *ChapterHandler) GetChapter(c *gin.Context) {
	ch, entry, err := h.chapters.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		handleError(c, err, "failed to get chapter")
		return
	}
	dto.OK(c, dto.ToChapterResponse(ch, entry))
}

// UpdateChapter 编辑章节
// @Summary 编辑章节
// @Tags Chapters
// @Accept json
// @Produce json
// @Param id path string true "章节 ID"
// @Param body body dto.UpdateChapterRequest true "更新字段"
// @Success 200 {object} dto.ChapterResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/chapters/{id} [put]
func (h *ChapterHandler) UpdateChapter(c *gin.Context) {
	var req dto.UpdateChapterRequest
	if !bindJSON(c, &req) {
		return
	}

	ch, err := h.chapters.Update(c.Request.Context(), currentUser(c), c.Param("id"), req.ToPatch())
	if err != nil {
		handleError(c, err, "failed to update chapter")
		return
	}
	dto.OK(c, dto.ToChapterResponse(ch, nil))
}

// DeleteChapter 删除章节
// @Summary 删除章节
// @Tags Chapters
// @Produce json
// @Param id path string true "章节 ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/chapters/{id} [delete]
func (h *ChapterHandler) DeleteChapter(c *gin.Context) {
	if err := h.chapters.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		handleError(c, err, "failed to delete chapter")
		return
	}
	dto.Message(c, "Chapter deleted successfully")
}

// GenerateHandler 无状态叙事生成处理器
type GenerateHandler struct {
	generator NarrativeGenerator
}

// NewGenerateHandler 创建叙事生成处理器
func NewGenerateHandler(generator NarrativeGenerator) *GenerateHandler {
	return &GenerateHandler{generator: generator}
}

// GenerateNarrative 把一段日记改写为章节
// @Summary 叙事生成
// @Description entry、storyTone、narrator 必填；不落库
// @Tags Generation
// @Accept json
// @Produce json
// @Param body body dto.GenerateChapterRequest true "日记与风格"
// @Success 200 {object} dto.GenerateChapterResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/generate-chapter [post]
func (h *GenerateHandler) GenerateNarrative(c *gin.Context) {
	var req dto.GenerateChapterRequest
	if !bindJSON(c, &req) {
		return
	}

	out, err := h.generator.Generate(c.Request.Context(), req.ToInput())
	if err != nil {
		handleError(c, err, "narrative generation failed")
		return
	}
	dto.OK(c, dto.GenerateChapterResponse{
		Title:     out.Title,
		Summary:   out.Summary,
		Narrative: out.Narrative,
	})
}
