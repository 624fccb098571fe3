package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"odyscribe-api/internal/domain/entity"
	"odyscribe-api/internal/domain/repository"
)

// EntryRepository 日记条目仓储实现
type EntryRepository struct {
	client *Client
}

// NewEntryRepository 创建日记条目仓储
func NewEntryRepository(client *Client) *EntryRepository {
	return &EntryRepository{client: client}
}

// Create 创建条目
func (r *EntryRepository) Create(ctx context.Context, entry *entity.JournalEntry) error {
	ctx, span := tracer.Start(ctx, "postgres.EntryRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(entry).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create entry: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取条目
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*entity.JournalEntry, error) {
	ctx, span := tracer.Start(ctx, "postgres.EntryRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var entry entity.JournalEntry
	if err := db.First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return &entry, nil
}

// Update 更新条目
func (r *EntryRepository) Update(ctx context.Context, entry *entity.JournalEntry) error {
	ctx, span := tracer.Start(ctx, "postgres.EntryRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Model(&entity.JournalEntry{}).
		Where("id = ?", entry.ID).
		Updates(map[string]interface{}{
			"title":      entry.Title,
			"content":    entry.Content,
			"mood":       entry.Mood,
			"is_draft":   entry.IsDraft,
			"updated_at": entry.UpdatedAt,
		}).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update entry: %w", err)
	}
	return nil
}

// Delete 删除条目，章节保留但不再引用该条目
func (r *EntryRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.EntryRepository.Delete")
	defer span.End()

	err := getDB(ctx, r.client.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Chapter{}).
			Where("entry_id = ?", id).
			Update("entry_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.JournalEntry{}, "id = ?", id).Error
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// ListByUser 获取用户条目
func (r *EntryRepository) ListByUser(ctx context.Context, userID string, filter *repository.EntryFilter, pagination *repository.Pagination) (*repository.PagedResult[*entity.JournalEntry], error) {
	ctx, span := tracer.Start(ctx, "postgres.EntryRepository.ListByUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.JournalEntry{}).Where("user_id = ?", userID)

	order := repository.SortOrderDesc
	if filter != nil {
		if filter.Mood != "" {
			query = query.Where("mood = ?", filter.Mood)
		}
		if q := strings.TrimSpace(filter.Query); q != "" {
			like := "%" + escapeLike(q) + "%"
			query = query.Where("(title ILIKE ? OR content ILIKE ?)", like, like)
		}
		if filter.Drafts != nil {
			query = query.Where("is_draft = ?", *filter.Drafts)
		}
		if filter.Order == repository.SortOrderAsc {
			order = repository.SortOrderAsc
		}
	}

	var entries []*entity.JournalEntry
	if pagination == nil {
		if err := query.Order("created_at " + string(order)).Find(&entries).Error; err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to list entries: %w", err)
		}
		return repository.NewUnpagedResult(entries), nil
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count entries: %w", err)
	}
	err := query.Session(&gorm.Session{}).
		Order("created_at " + string(order)).
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&entries).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return repository.NewPagedResult(entries, total, *pagination), nil
}

// ListRecent 获取最近条目
func (r *EntryRepository) ListRecent(ctx context.Context, userID string, limit int) ([]*entity.JournalEntry, error) {
	ctx, span := tracer.Start(ctx, "postgres.EntryRepository.ListRecent")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var entries []*entity.JournalEntry
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list recent entries: %w", err)
	}
	return entries, nil
}

// SetHasChapter 设置 has_chapter 标记
func (r *EntryRepository) SetHasChapter(ctx context.Context, id string, hasChapter bool) error {
	ctx, span := tracer.Start(ctx, "postgres.EntryRepository.SetHasChapter")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Model(&entity.JournalEntry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"has_chapter": hasChapter,
			"updated_at":  time.Now().UTC(),
		}).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to flag entry: %w", err)
	}
	return nil
}

// CountByUser 统计用户条目数
func (r *EntryRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.EntryRepository.CountByUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var count int64
	if err := db.Model(&entity.JournalEntry{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// escapeLike 转义 LIKE 通配符
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
