package chapter

import (
	"context"
	"fmt"
	"strings"

	"odyscribe-api/internal/domain/entity"
	"odyscribe-api/internal/domain/repository"
	apperrors "odyscribe-api/pkg/errors"
	"odyscribe-api/pkg/logger"
)

// Patch 章节编辑字段，nil 表示不修改
type Patch struct {
	Title   *string
	Content *string
	Summary *string
}

// Service 章节草稿、查询与编辑
type Service struct {
	entries  repository.EntryRepository
	chapters repository.ChapterRepository
	tx       repository.Transactor
}

// NewService 创建章节服务
func NewService(entries repository.EntryRepository, chapters repository.ChapterRepository, tx repository.Transactor) *Service {
	return &Service{entries: entries, chapters: chapters, tx: tx}
}

// PrepareDraft 选择基调与叙述者：为条目创建草稿章节，已有章节则更新偏好并回到草稿
//
// 已完成章节回到草稿后，条目不再有已完成章节时同步清除 has_chapter。
func (s *Service) PrepareDraft(ctx context.Context, userID, entryID string, tone entity.StoryTone, narrator entity.Narrator) (*entity.Chapter, error) {
	if tone == "" || narrator == "" {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "storyTone and narrator are required")
	}
	if !tone.IsValid() {
		return nil, apperrors.New(apperrors.CodeInvalidParam, fmt.Sprintf("Invalid storyTone: %s", tone))
	}
	if !narrator.IsValid() {
		return nil, apperrors.New(apperrors.CodeInvalidParam, fmt.Sprintf("Invalid narrator: %s", narrator))
	}

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

	existing, err := s.chapters.GetByEntryID(ctx, entryID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to get chapter")
	}

	if existing != nil && existing.OwnedBy(userID) {
		wasCompleted := existing.IsCompleted()
		existing.StoryTone = tone
		existing.Narrator = narrator
		existing.Status = entity.ChapterStatusDraft
		err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := s.chapters.Update(txCtx, existing); err != nil {
				return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to update chapter")
			}
			if !wasCompleted {
				return nil
			}
			return s.syncHasChapter(txCtx, entryID)
		})
		if err != nil {
			return nil, err
		}
		existing.IncrementVersion()
		return existing, nil
	}

	ch := entity.NewDraftChapter(userID, entryID, tone, narrator)
	if err := s.chapters.Create(ctx, ch); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to create chapter")
	}
	logger.Info(ctx, "draft chapter created", "chapter_id", ch.ID, "entry_id", entryID)
	return ch, nil
}

// Get 获取章节及其来源条目（来源可能已删除）
func (s *Service) Get(ctx context.Context, userID, chapterID string) (*entity.Chapter, *entity.JournalEntry, error) {
	ch, err := s.owned(ctx, userID, chapterID)
	if err != nil {
		return nil, nil, err
	}

	var entry *entity.JournalEntry
	if id := ch.SourceEntryID(); id != "" {
		entry, err = s.entries.GetByID(ctx, id)
		if err != nil {
			return nil, nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to get entry")
		}
	}
	return ch, entry, nil
}

// List 用户章节（故事书时间线）
func (s *Service) List(ctx context.Context, userID string) ([]*entity.Chapter, error) {
	chapters, err := s.chapters.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list chapters")
	}
	return chapters, nil
}

// Update 编辑标题、正文、摘要；已完成章节三者不得为空
func (s *Service) Update(ctx context.Context, userID, chapterID string, patch Patch) (*entity.Chapter, error) {
	ch, err := s.owned(ctx, userID, chapterID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		ch.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Content != nil {
		ch.Content = *patch.Content
	}
	if patch.Summary != nil {
		ch.Summary = strings.TrimSpace(*patch.Summary)
	}
	if ch.IsCompleted() && !ch.HasNarrative() {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "A completed chapter needs a title, content and summary")
	}

	if err := s.chapters.Update(ctx, ch); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to update chapter")
	}
	ch.IncrementVersion()
	return ch, nil
}

// Delete 删除章节；来源条目不再有已完成章节时清除 has_chapter
func (s *Service) Delete(ctx context.Context, userID, chapterID string) error {
	ch, err := s.owned(ctx, userID, chapterID)
	if err != nil {
		return err
	}

	return s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.chapters.Delete(txCtx, ch.ID); err != nil {
			return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to delete chapter")
		}
		entryID := ch.SourceEntryID()
		if entryID == "" {
			return nil
		}
		return s.syncHasChapter(txCtx, entryID)
	})
}

// syncHasChapter 条目不再有已完成章节时清除 has_chapter
func (s *Service) syncHasChapter(ctx context.Context, entryID string) error {
	remaining, err := s.chapters.CountCompletedByEntry(ctx, entryID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to count chapters")
	}
	if remaining > 0 {
		return nil
	}
	if err := s.entries.SetHasChapter(ctx, entryID, false); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to flag entry")
	}
	return nil
}

func (s *Service) owned(ctx context.Context, userID, chapterID string) (*entity.Chapter, error) {
	if !entity.IsValidID(chapterID) {
		return nil, apperrors.ErrChapterNotFound
	}
	ch, err := s.chapters.GetByID(ctx, chapterID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to get chapter")
	}
	if ch == nil || !ch.OwnedBy(userID) {
		return nil, apperrors.ErrChapterNotFound
	}
	return ch, nil
}
