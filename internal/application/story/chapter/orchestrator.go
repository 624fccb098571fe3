package chapter

import (
	"context"
	"time"

	"odyscribe-api/internal/domain/entity"
	"odyscribe-api/internal/domain/repository"
	wfmodel "odyscribe-api/internal/workflow/model"
	apperrors "odyscribe-api/pkg/errors"
	"odyscribe-api/pkg/logger"
	"odyscribe-api/pkg/tracer"
)

// defaultLockTTL 未配置时的生成锁过期时间
const defaultLockTTL = 2 * time.Minute

// GenerationResult 编排结果：完成的章节与其来源条目
type GenerationResult struct {
	Chapter *entity.Chapter
	Entry   *entity.JournalEntry
}

// Orchestrator 章节生成编排器
//
// 读取条目与草稿章节，在事务外调用模型，随后在一个事务里按版本号写回章节
// 并标记条目 has_chapter。同一条目的并发运行由 Locker 拒绝，过期写入由版本号拒绝。
type Orchestrator struct {
	entries   repository.EntryRepository
	chapters  repository.ChapterRepository
	tx        repository.Transactor
	generator NarrativeGenerator
	locker    repository.Locker
	lockTTL   time.Duration
}

// NewOrchestrator 创建编排器，locker 可为 nil（仅依赖版本号）
func NewOrchestrator(
	entries repository.EntryRepository,
	chapters repository.ChapterRepository,
	tx repository.Transactor,
	generator NarrativeGenerator,
	locker repository.Locker,
	lockTTL time.Duration,
) *Orchestrator {
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	return &Orchestrator{
		entries:   entries,
		chapters:  chapters,
		tx:        tx,
		generator: generator,
		locker:    locker,
		lockTTL:   lockTTL,
	}
}

// Generate 为条目生成章节
func (o *Orchestrator) Generate(ctx context.Context, userID, entryID string) (*GenerationResult, error) {
	ctx, span := tracer.Start(ctx, "chapter.Orchestrator.Generate")
	defer span.End()
	ctx = logger.WithContext(ctx, logger.EntryIDKey, entryID)

	if !entity.IsValidID(entryID) {
		return nil, apperrors.ErrEntryNotFound
	}

	if o.locker != nil {
		lock, err := o.locker.TryLock(ctx, "chapter-gen:"+entryID, o.lockTTL)
		if err != nil {
			logger.Error(ctx, "failed to acquire generation lock", err)
			return nil, apperrors.Wrap(err, apperrors.CodeCacheError, "failed to acquire generation lock")
		}
		if lock == nil {
			logger.Warn(ctx, "chapter generation already in progress")
			return nil, apperrors.ErrGenerationInProgress
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn(ctx, "failed to release generation lock", "error", err.Error())
			}
		}()
	}

	// 1. 读取条目
	entry, err := o.entries.GetByID(ctx, entryID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to get entry")
	}
	if entry == nil || !entry.OwnedBy(userID) {
		return nil, apperrors.ErrEntryNotFound
	}

	// 2. 读取草稿章节（由选择基调步骤预先创建）
	ch, err := o.chapters.GetByEntryID(ctx, entryID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to get chapter")
	}
	if ch == nil || !ch.OwnedBy(userID) {
		return nil, apperrors.ErrChapterRecordMissing
	}
	ctx = logger.WithContext(ctx, logger.ChapterIDKey, ch.ID)
	expectedVersion := ch.Version

	// 3. 调用模型（事务外）
	out, err := o.generator.Generate(ctx, &wfmodel.NarrativeGenerateInput{
		Title:        entry.Title,
		EntryContent: entry.Content,
		StoryTone:    string(ch.StoryTone),
		Narrator:     string(ch.Narrator),
	})
	if err != nil {
		return nil, err
	}

	ch.Complete(out.Title, out.Narrative, out.Summary)
	ch.GenerationMetadata = &entity.GenerationMetadata{
		Model:            out.Meta.Model,
		Provider:         out.Meta.Provider,
		PromptTokens:     out.Meta.PromptTokens,
		CompletionTokens: out.Meta.CompletionTokens,
		Temperature:      out.Meta.Temperature,
		GeneratedAt:      out.Meta.GeneratedAt.Format(time.RFC3339),
	}

	// 4-5. 版本比较写回章节并标记条目，同一事务提交
	err = o.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		ok, err := o.chapters.CompleteGeneration(txCtx, ch, expectedVersion)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to save chapter")
		}
		if !ok {
			return apperrors.ErrStaleChapter
		}
		if err := o.entries.SetHasChapter(txCtx, entry.ID, true); err != nil {
			return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to flag entry")
		}
		return nil
	})
	if err != nil {
		logger.Error(ctx, "failed to persist generated chapter", err, "expected_version", expectedVersion)
		return nil, err
	}

	ch.Version = expectedVersion + 1
	entry.HasChapter = true
	logger.Info(ctx, "chapter generated", "story_tone", ch.StoryTone, "narrator", ch.Narrator)

	return &GenerationResult{Chapter: ch, Entry: entry}, nil
}
