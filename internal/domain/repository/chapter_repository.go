// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"odyscribe-api/internal/domain/entity"
)

// ChapterRepository 章节仓储接口
type ChapterRepository interface {
	// Create 创建章节
	Create(ctx context.Context, chapter *entity.Chapter) error

	// GetByID 根据 ID 获取章节
	GetByID(ctx context.Context, id string) (*entity.Chapter, error)

	// GetByEntryID 获取来源条目对应的章节（多条时取最新）
	GetByEntryID(ctx context.Context, entryID string) (*entity.Chapter, error)

	// Update 更新章节可编辑字段
	Update(ctx context.Context, chapter *entity.Chapter) error

	// CompleteGeneration 以乐观锁写入生成结果，版本不匹配时返回 (false, nil)
	CompleteGeneration(ctx context.Context, chapter *entity.Chapter, expectedVersion int) (bool, error)

	// Delete 删除章节
	Delete(ctx context.Context, id string) error

	// ListByUser 获取用户章节列表（按创建时间倒序）
	ListByUser(ctx context.Context, userID string) ([]*entity.Chapter, error)

	// CountCompletedByEntry 统计引用某条目的已完成章节数
	CountCompletedByEntry(ctx context.Context, entryID string) (int64, error)

	// CountByUser 统计用户章节数
	CountByUser(ctx context.Context, userID string) (int64, error)
}
