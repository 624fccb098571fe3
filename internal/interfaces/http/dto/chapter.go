package dto

import (
	"time"

	"odyscribe-api/internal/application/story/chapter"
	"odyscribe-api/internal/domain/entity"
	wfmodel "odyscribe-api/internal/workflow/model"
)

// GenerateChapterRequest 叙事生成请求
type GenerateChapterRequest struct {
	Title     string `json:"title"`
	Entry     string `json:"entry"`
	StoryTone string `json:"storyTone"`
	Narrator  string `json:"narrator"`
}

// ToInput 转换为生成输入
func (r *GenerateChapterRequest) ToInput() *wfmodel.NarrativeGenerateInput {
	return &wfmodel.NarrativeGenerateInput{
		Title:        r.Title,
		EntryContent: r.Entry,
		StoryTone:    r.StoryTone,
		Narrator:     r.Narrator,
	}
}

// GenerateChapterResponse 叙事生成响应
type GenerateChapterResponse struct {
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Narrative string `json:"narrative"`
}

// PrepareChapterRequest 选择基调与叙述者
type PrepareChapterRequest struct {
	StoryTone string `json:"story_tone"`
	Narrator  string `json:"narrator"`
}

// UpdateChapterRequest 编辑章节
type UpdateChapterRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Summary *string `json:"summary"`
}

// ToPatch 转换为应用层补丁
func (r *UpdateChapterRequest) ToPatch() chapter.Patch {
	return chapter.Patch{Title: r.Title, Content: r.Content, Summary: r.Summary}
}

// OriginalEntry 章节页展示的来源条目
type OriginalEntry struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Mood      string `json:"mood"`
	CreatedAt string `json:"created_at"`
}

// ChapterResponse 章节响应
type ChapterResponse struct {
	ID            string         `json:"id"`
	EntryID       *string        `json:"entry_id"`
	StoryTone     string         `json:"story_tone"`
	Narrator      string         `json:"narrator"`
	Status        string         `json:"status"`
	Title         string         `json:"title"`
	Content       string         `json:"content"`
	Summary       string         `json:"summary"`
	Version       int            `json:"version"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
	OriginalEntry *OriginalEntry `json:"original_entry,omitempty"`
}

// ChapterListResponse 章节列表
type ChapterListResponse struct {
	Chapters []*ChapterResponse `json:"chapters"`
}

// ToChapterResponse 转换章节，entry 可为 nil
func ToChapterResponse(ch *entity.Chapter, entry *entity.JournalEntry) *ChapterResponse {
	if ch == nil {
		return nil
	}
	resp := &ChapterResponse{
		ID:        ch.ID,
		EntryID:   ch.EntryID,
		StoryTone: string(ch.StoryTone),
		Narrator:  string(ch.Narrator),
		Status:    string(ch.Status),
		Title:     ch.Title,
		Content:   ch.Content,
		Summary:   ch.Summary,
		Version:   ch.Version,
		CreatedAt: ch.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: ch.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if entry != nil {
		resp.OriginalEntry = &OriginalEntry{
			ID:        entry.ID,
			Title:     entry.Title,
			Content:   entry.Content,
			Mood:      string(entry.Mood),
			CreatedAt: entry.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	return resp
}

// ToChapterListResponse 批量转换章节
func ToChapterListResponse(chapters []*entity.Chapter) *ChapterListResponse {
	out := make([]*ChapterResponse, 0, len(chapters))
	for _, ch := range chapters {
		out = append(out, ToChapterResponse(ch, nil))
	}
	return &ChapterListResponse{Chapters: out}
}
