package dto

import (
	"time"

	"odyscribe-api/internal/application/journal"
	"odyscribe-api/internal/domain/entity"
)

// CreateEntryRequest 创建条目请求
type CreateEntryRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Mood    string `json:"mood"`
	IsDraft bool   `json:"is_draft"`
}

// ToInput 转换为应用层参数
func (r *CreateEntryRequest) ToInput() journal.CreateInput {
	return journal.CreateInput{
		Title:   r.Title,
		Content: r.Content,
		Mood:    r.Mood,
		IsDraft: r.IsDraft,
	}
}

// UpdateEntryRequest 更新条目请求
type UpdateEntryRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Mood    *string `json:"mood"`
	IsDraft *bool   `json:"is_draft"`
}

// ToPatch 转换为应用层补丁
func (r *UpdateEntryRequest) ToPatch() journal.Patch {
	return journal.Patch{
		Title:   r.Title,
		Content: r.Content,
		Mood:    r.Mood,
		IsDraft: r.IsDraft,
	}
}

// EntryResponse 条目响应
type EntryResponse struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Mood       string `json:"mood"`
	IsDraft    bool   `json:"is_draft"`
	HasChapter bool   `json:"has_chapter"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// EntryListResponse 条目列表响应
type EntryListResponse struct {
	Entries []*EntryResponse `json:"entries"`
	Meta    *PageMeta        `json:"meta,omitempty"`
}

// ToEntryResponse 转换条目
func ToEntryResponse(e *entity.JournalEntry) *EntryResponse {
	if e == nil {
		return nil
	}
	return &EntryResponse{
		ID:         e.ID,
		Title:      e.Title,
		Content:    e.Content,
		Mood:       string(e.Mood),
		IsDraft:    e.IsDraft,
		HasChapter: e.HasChapter,
		CreatedAt:  e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// ToEntryResponses 批量转换条目
func ToEntryResponses(entries []*entity.JournalEntry) []*EntryResponse {
	out := make([]*EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ToEntryResponse(e))
	}
	return out
}
