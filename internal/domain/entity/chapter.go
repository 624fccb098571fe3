package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChapterStatus 章节状态
type ChapterStatus string

const (
	ChapterStatusDraft     ChapterStatus = "draft"
	ChapterStatusCompleted ChapterStatus = "completed"
)

// StoryTone 故事基调
type StoryTone string

const (
	StoryToneEpicFantasy  StoryTone = "epic-fantasy"
	StoryToneWhimsical    StoryTone = "whimsical"
	StoryToneDarkGothic   StoryTone = "dark-gothic"
	StoryToneCasualModern StoryTone = "casual-modern"
)

// IsValid 检查基调是否为已知枚举值
func (t StoryTone) IsValid() bool {
	switch t {
	case StoryToneEpicFantasy, StoryToneWhimsical, StoryToneDarkGothic, StoryToneCasualModern:
		return true
	}
	return false
}

// Narrator 叙述者人设
type Narrator string

const (
	NarratorWiseSage        Narrator = "wise-sage"
	NarratorCheekyBard      Narrator = "cheeky-bard"
	NarratorStoicChronicler Narrator = "stoic-chronicler"
)

// IsValid 检查叙述者是否为已知枚举值
func (n Narrator) IsValid() bool {
	switch n {
	case NarratorWiseSage, NarratorCheekyBard, NarratorStoicChronicler:
		return true
	}
	return false
}

// GenerationMetadata 生成元数据
type GenerationMetadata struct {
	Model            string  `json:"model,omitempty"`
	Provider         string  `json:"provider,omitempty"`
	PromptTokens     int     `json:"prompt_tokens,omitempty"`
	CompletionTokens int     `json:"completion_tokens,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
	GeneratedAt      string  `json:"generated_at,omitempty"`
}

// Chapter 章节实体
// EntryID 可为空：草稿阶段或来源条目被删除后，章节仍然保留。
type Chapter struct {
	ID                 string              `json:"id" gorm:"type:uuid;primaryKey"`
	EntryID            *string             `json:"entry_id" gorm:"type:uuid;index"`
	UserID             string              `json:"user_id" gorm:"type:uuid;index;not null"`
	StoryTone          StoryTone           `json:"story_tone" gorm:"type:varchar(32);not null"`
	Narrator           Narrator            `json:"narrator" gorm:"type:varchar(32);not null"`
	Status             ChapterStatus       `json:"status" gorm:"type:varchar(32);default:'draft'"`
	Title              string              `json:"title" gorm:"type:varchar(255)"`
	Content            string              `json:"content" gorm:"type:text"`
	Summary            string              `json:"summary" gorm:"type:text"`
	GenerationMetadata *GenerationMetadata `json:"generation_metadata,omitempty" gorm:"type:jsonb;serializer:json"`
	Version            int                 `json:"version" gorm:"default:1;not null"`
	CreatedAt          time.Time           `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt          time.Time           `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Chapter) TableName() string {
	return "journal_chapters"
}

// NewDraftChapter 创建草稿章节，仅携带基调、叙述者和来源条目
func NewDraftChapter(userID, entryID string, tone StoryTone, narrator Narrator) *Chapter {
	now := time.Now().UTC()
	ch := &Chapter{
		ID:        uuid.NewString(),
		UserID:    userID,
		StoryTone: tone,
		Narrator:  narrator,
		Status:    ChapterStatusDraft,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if entryID != "" {
		ch.EntryID = &entryID
	}
	return ch
}

// SourceEntryID 返回来源条目 ID，无来源时为空串
func (c *Chapter) SourceEntryID() string {
	if c == nil || c.EntryID == nil {
		return ""
	}
	return *c.EntryID
}

// OwnedBy 检查章节是否属于指定用户
func (c *Chapter) OwnedBy(userID string) bool {
	return c != nil && userID != "" && c.UserID == userID
}

// IsCompleted 是否已完成生成
func (c *Chapter) IsCompleted() bool {
	return c.Status == ChapterStatusCompleted
}

// HasNarrative 检查标题、正文、摘要均非空
func (c *Chapter) HasNarrative() bool {
	return strings.TrimSpace(c.Title) != "" &&
		strings.TrimSpace(c.Content) != "" &&
		strings.TrimSpace(c.Summary) != ""
}

// Complete 写入生成结果并标记完成
func (c *Chapter) Complete(title, content, summary string) {
	c.Title = title
	c.Content = content
	c.Summary = summary
	c.Status = ChapterStatusCompleted
	c.UpdatedAt = time.Now().UTC()
}

// IncrementVersion 增加版本号
func (c *Chapter) IncrementVersion() {
	c.Version++
	c.UpdatedAt = time.Now().UTC()
}
