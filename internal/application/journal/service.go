// Package journal 实现日记条目的增删改查与写作统计
package journal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"odyscribe-api/internal/domain/entity"
	"odyscribe-api/internal/domain/repository"
	apperrors "odyscribe-api/pkg/errors"
	"odyscribe-api/pkg/logger"
	"odyscribe-api/pkg/metrics"
)

// streakWindow 计算连续写作天数时读取的最近条目数
const streakWindow = 30

// CreateInput 创建条目参数
type CreateInput struct {
	Title   string
	Content string
	Mood    string
	IsDraft bool
}

// Patch 条目编辑字段，nil 表示不修改
type Patch struct {
	Title   *string
	Content *string
	Mood    *string
	IsDraft *bool
}

// Stats 个人写作统计
type Stats struct {
	TotalEntries  int64                `json:"total_entries"`
	TotalChapters int64                `json:"total_chapters"`
	LatestEntry   *entity.JournalEntry `json:"latest_entry"`
	LatestChapter *entity.Chapter      `json:"latest_chapter"`
	Streak        int                  `json:"streak"`
}

// Service 日记条目服务
type Service struct {
	entries  repository.EntryRepository
	chapters repository.ChapterRepository
	now      func() time.Time
}

// NewService 创建日记服务
func NewService(entries repository.EntryRepository, chapters repository.ChapterRepository) *Service {
	return &Service{entries: entries, chapters: chapters, now: time.Now}
}

// Create 创建条目；content 与 mood 必填
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*entity.JournalEntry, error) {
	if strings.TrimSpace(in.Content) == "" || strings.TrimSpace(in.Mood) == "" {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "Content and mood are required fields")
	}
	mood, err := parseMood(in.Mood)
	if err != nil {
		return nil, err
	}

	entry := entity.NewJournalEntry(userID, strings.TrimSpace(in.Title), in.Content, mood, in.IsDraft)
	if err := s.entries.Create(ctx, entry); err != nil {
		logger.Error(ctx, "failed to create entry", err)
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "Failed to create entry")
	}

	metrics.EntriesCreatedTotal.WithLabelValues(string(mood)).Inc()
	logger.Info(ctx, "entry created", "entry_id", entry.ID, "mood", mood, "is_draft", entry.IsDraft)
	return entry, nil
}

// Get 获取条目，不存在或不属于当前用户时返回 404
func (s *Service) Get(ctx context.Context, userID, entryID string) (*entity.JournalEntry, error) {
	if !entity.IsValidID(entryID) {
		return nil, apperrors.ErrEntryNotFound
	}
	entry, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to get entry")
	}
	if entry == nil || !entry.OwnedBy(userID) {
		return nil, apperrors.ErrEntryNotFound
	}
	return entry, nil
}

// Update 编辑条目
func (s *Service) Update(ctx context.Context, userID, entryID string, patch Patch) (*entity.JournalEntry, error) {
	entry, err := s.Get(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}

	if patch.Mood != nil {
		mood, err := parseMood(*patch.Mood)
		if err != nil {
			return nil, err
		}
		entry.Mood = mood
	}
	if patch.Content != nil {
		if strings.TrimSpace(*patch.Content) == "" {
			return nil, apperrors.New(apperrors.CodeInvalidParam, "Content cannot be empty")
		}
		entry.Content = *patch.Content
	}
	if patch.Title != nil {
		entry.Title = strings.TrimSpace(*patch.Title)
		if entry.Title == "" {
			entry.Title = entity.DefaultEntryTitle
		}
	}
	if patch.IsDraft != nil {
		entry.IsDraft = *patch.IsDraft
	}
	entry.UpdatedAt = s.now().UTC()

	if err := s.entries.Update(ctx, entry); err != nil {
		logger.Error(ctx, "failed to update entry", err, "entry_id", entry.ID)
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "Failed to update entry")
	}
	return entry, nil
}

// Delete 删除条目，关联章节保留并解除关联
func (s *Service) Delete(ctx context.Context, userID, entryID string) error {
	if _, err := s.Get(ctx, userID, entryID); err != nil {
		return err
	}
	if err := s.entries.Delete(ctx, entryID); err != nil {
		logger.Error(ctx, "failed to delete entry", err, "entry_id", entryID)
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "Failed to delete entry")
	}
	logger.Info(ctx, "entry deleted", "entry_id", entryID)
	return nil
}

// List 按筛选条件列出条目；pagination 为 nil 时返回全部
func (s *Service) List(ctx context.Context, userID string, filter *repository.EntryFilter, pagination *repository.Pagination) (*repository.PagedResult[*entity.JournalEntry], error) {
	if filter != nil && filter.Mood != "" && !filter.Mood.IsValid() {
		return nil, apperrors.New(apperrors.CodeInvalidParam, fmt.Sprintf("Invalid mood: %s", filter.Mood))
	}
	res, err := s.entries.ListByUser(ctx, userID, filter, pagination)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list entries")
	}
	return res, nil
}

// Stats 汇总条目数、章节数、最近记录与连续写作天数
func (s *Service) Stats(ctx context.Context, userID string) (*Stats, error) {
	totalEntries, err := s.entries.CountByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to count entries")
	}
	totalChapters, err := s.chapters.CountByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to count chapters")
	}
	recent, err := s.entries.ListRecent(ctx, userID, streakWindow)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list recent entries")
	}
	chapters, err := s.chapters.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list chapters")
	}

	stats := &Stats{
		TotalEntries:  totalEntries,
		TotalChapters: totalChapters,
		Streak:        Streak(recent, s.now()),
	}
	if len(recent) > 0 {
		stats.LatestEntry = recent[0]
	}
	if len(chapters) > 0 {
		stats.LatestChapter = chapters[0]
	}
	return stats, nil
}

// Streak 计算截至 now 的连续写作天数（UTC 日历日）
//
// 最近一篇须写于今天或昨天，否则为 0；同一天多篇只计一次。
func Streak(entries []*entity.JournalEntry, now time.Time) int {
	days := make(map[time.Time]struct{}, len(entries))
	for _, e := range entries {
		days[truncateDay(e.CreatedAt)] = struct{}{}
	}

	day := truncateDay(now)
	if _, ok := days[day]; !ok {
		day = day.AddDate(0, 0, -1)
		if _, ok := days[day]; !ok {
			return 0
		}
	}

	streak := 0
	for {
		if _, ok := days[day]; !ok {
			return streak
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseMood(raw string) (entity.Mood, error) {
	mood := entity.Mood(strings.TrimSpace(raw))
	if !mood.IsValid() {
		return "", apperrors.New(apperrors.CodeInvalidParam, fmt.Sprintf("Invalid mood: %s", raw))
	}
	return mood, nil
}
