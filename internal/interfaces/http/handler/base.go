// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"odyscribe-api/internal/application/journal"
	"odyscribe-api/internal/application/story/chapter"
	"odyscribe-api/internal/domain/entity"
	"odyscribe-api/internal/domain/repository"
	"odyscribe-api/internal/interfaces/http/dto"
	"odyscribe-api/internal/interfaces/http/middleware"
	wfmodel "odyscribe-api/internal/workflow/model"
	apperrors "odyscribe-api/pkg/errors"
	"odyscribe-api/pkg/logger"
)

// generationFailedMessage 生成不可用与解析失败对外统一的提示
const generationFailedMessage = "Failed to generate chapter"

// EntryService 条目用例
type EntryService interface {
	Create(ctx context.Context, userID string, in journal.CreateInput) (*entity.JournalEntry, error)
	Get(ctx context.Context, userID, entryID string) (*entity.JournalEntry, error)
	Update(ctx context.Context, userID, entryID string, patch journal.Patch) (*entity.JournalEntry, error)
	Delete(ctx context.Context, userID, entryID string) error
	List(ctx context.Context, userID string, filter *repository.EntryFilter, pagination *repository.Pagination) (*repository.PagedResult[*entity.JournalEntry], error)
	Stats(ctx context.Context, userID string) (*journal.Stats, error)
}

// ChapterService 章节用例
type ChapterService interface {
	PrepareDraft(ctx context.Context, userID, entryID string, tone entity.StoryTone, narrator entity.Narrator) (*entity.Chapter, error)
	Get(ctx context.Context, userID, chapterID string) (*entity.Chapter, *entity.JournalEntry, error)
	List(ctx context.Context, userID string) ([]*entity.Chapter, error)
	Update(ctx context.Context, userID, chapterID string, patch chapter.Patch) (*entity.Chapter, error)
	Delete(ctx context.Context, userID, chapterID string) error
}

// ChapterOrchestrator 章节生成编排
type ChapterOrchestrator interface {
	Generate(ctx context.Context, userID, entryID string) (*chapter.GenerationResult, error)
}

// NarrativeGenerator 无状态叙事生成
type NarrativeGenerator interface {
	Generate(ctx context.Context, in *wfmodel.NarrativeGenerateInput) (*wfmodel.NarrativeGenerateOutput, error)
}

// Narrator 服务端朗读合成
type Narrator interface {
	Narrate(ctx context.Context, text, tone, narrator string) ([]byte, error)
}

// handleError 把错误转换为 {error} 响应并记录原因
func handleError(c *gin.Context, err error, logMsg string) {
	ctx := c.Request.Context()

	if apperrors.IsGenerationFailure(err) {
		logger.Error(ctx, logMsg, err, "code", apperrors.AsAppError(err).Code)
		dto.InternalError(c, generationFailedMessage)
		return
	}

	if !apperrors.IsAppError(err) {
		logger.Error(ctx, logMsg, err)
		dto.InternalError(c, "Internal server error")
		return
	}

	appErr := apperrors.AsAppError(err)
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		logger.Error(ctx, logMsg, err, "code", appErr.Code)
	} else {
		logger.Debug(ctx, logMsg, "code", appErr.Code, "message", appErr.Message)
	}
	dto.Error(c, status, appErr.Message)
}

// bindJSON 解析请求体，失败时写 400
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		dto.BadRequest(c, "Invalid request body")
		return false
	}
	return true
}

func currentUser(c *gin.Context) string {
	return middleware.CurrentUserID(c)
}
