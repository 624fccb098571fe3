package repository

import (
	"context"

	"odyscribe-api/internal/domain/entity"
)

// EntryFilter 日记条目过滤条件
type EntryFilter struct {
	Mood   entity.Mood
	Query  string
	Drafts *bool
	Order  SortOrder
}

// EntryRepository 日记条目仓储接口
type EntryRepository interface {
	// Create 创建条目
	Create(ctx context.Context, entry *entity.JournalEntry) error

	// GetByID 根据 ID 获取条目
	GetByID(ctx context.Context, id string) (*entity.JournalEntry, error)

	// Update 更新条目
	Update(ctx context.Context, entry *entity.JournalEntry) error

	// Delete 删除条目，并解除章节对它的引用
	Delete(ctx context.Context, id string) error

	// ListByUser 获取用户条目，pagination 为空时返回全部
	ListByUser(ctx context.Context, userID string, filter *EntryFilter, pagination *Pagination) (*PagedResult[*entity.JournalEntry], error)

	// ListRecent 获取最近 limit 条条目（按创建时间倒序）
	ListRecent(ctx context.Context, userID string, limit int) ([]*entity.JournalEntry, error)

	// SetHasChapter 设置 has_chapter 标记
	SetHasChapter(ctx context.Context, id string, hasChapter bool) error

	// CountByUser 统计用户条目数
	CountByUser(ctx context.Context, userID string) (int64, error)
}
