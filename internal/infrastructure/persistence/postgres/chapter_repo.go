// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"odyscribe-api/internal/domain/entity"
)

// ChapterRepository 章节仓储实现
type ChapterRepository struct {
	client *Client
}

// NewChapterRepository 创建章节仓储
func NewChapterRepository(client *Client) *ChapterRepository {
	return &ChapterRepository{client: client}
}

// Create 创建章节
func (r *ChapterRepository) Create(ctx context.Context, chapter *entity.Chapter) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(chapter).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create chapter: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取章节
func (r *ChapterRepository) GetByID(ctx context.Context, id string) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chapter entity.Chapter
	if err := db.First(&chapter, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	return &chapter, nil
}

// GetByEntryID 获取来源条目对应的最新章节
func (r *ChapterRepository) GetByEntryID(ctx context.Context, entryID string) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.GetByEntryID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chapter entity.Chapter
	err := db.Where("entry_id = ?", entryID).
		Order("created_at DESC").
		First(&chapter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get chapter by entry: %w", err)
	}
	return &chapter, nil
}

// Update 更新章节可编辑字段（基调、叙述者、状态、标题、正文、摘要）
func (r *ChapterRepository) Update(ctx context.Context, chapter *entity.Chapter) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Model(&entity.Chapter{}).
		Where("id = ?", chapter.ID).
		Updates(map[string]interface{}{
			"story_tone": chapter.StoryTone,
			"narrator":   chapter.Narrator,
			"status":     chapter.Status,
			"title":      chapter.Title,
			"content":    chapter.Content,
			"summary":    chapter.Summary,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update chapter: %w", err)
	}
	return nil
}

// CompleteGeneration 以版本号作比较写入生成结果
func (r *ChapterRepository) CompleteGeneration(ctx context.Context, chapter *entity.Chapter, expectedVersion int) (bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.CompleteGeneration")
	defer span.End()

	db := getDB(ctx, r.client.db)
	result := db.Model(&entity.Chapter{}).
		Where("id = ? AND version = ?", chapter.ID, expectedVersion).
		Updates(map[string]interface{}{
			"title":               chapter.Title,
			"content":             chapter.Content,
			"summary":             chapter.Summary,
			"status":              entity.ChapterStatusCompleted,
			"generation_metadata": chapter.GenerationMetadata,
			"version":             gorm.Expr("version + 1"),
			"updated_at":          time.Now().UTC(),
		})
	if result.Error != nil {
		span.RecordError(result.Error)
		return false, fmt.Errorf("failed to complete chapter generation: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Delete 删除章节
func (r *ChapterRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Chapter{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete chapter: %w", err)
	}
	return nil
}

// ListByUser 获取用户章节列表
func (r *ChapterRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.ListByUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chapters []*entity.Chapter
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&chapters).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	return chapters, nil
}

// CountCompletedByEntry 统计引用某条目的已完成章节数
func (r *ChapterRepository) CountCompletedByEntry(ctx context.Context, entryID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.CountCompletedByEntry")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var count int64
	err := db.Model(&entity.Chapter{}).
		Where("entry_id = ? AND status = ?", entryID, entity.ChapterStatusCompleted).
		Count(&count).Error
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count chapters: %w", err)
	}
	return count, nil
}

// CountByUser 统计用户章节数
func (r *ChapterRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.CountByUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var count int64
	if err := db.Model(&entity.Chapter{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count chapters: %w", err)
	}
	return count, nil
}
