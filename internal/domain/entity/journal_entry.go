// Package entity 定义领域实体
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mood 日记心情
type Mood string

const (
	MoodHappy      Mood = "happy"
	MoodSad        Mood = "sad"
	MoodNeutral    Mood = "neutral"
	MoodExcited    Mood = "excited"
	MoodPeaceful   Mood = "peaceful"
	MoodThoughtful Mood = "thoughtful"
)

// DefaultEntryTitle 未填写标题时的占位标题
const DefaultEntryTitle = "Untitled Entry"

// IsValid 检查心情是否为已知枚举值
func (m Mood) IsValid() bool {
	switch m {
	case MoodHappy, MoodSad, MoodNeutral, MoodExcited, MoodPeaceful, MoodThoughtful:
		return true
	}
	return false
}

// JournalEntry 日记条目实体
type JournalEntry struct {
	ID         string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID     string    `json:"user_id" gorm:"type:uuid;index;not null"`
	Title      string    `json:"title" gorm:"type:varchar(255)"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	Mood       Mood      `json:"mood" gorm:"type:varchar(32);not null"`
	IsDraft    bool      `json:"is_draft" gorm:"default:false"`
	HasChapter bool      `json:"has_chapter" gorm:"default:false"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (JournalEntry) TableName() string {
	return "journal_entries"
}

// NewJournalEntry 创建新日记条目
func NewJournalEntry(userID, title, content string, mood Mood, isDraft bool) *JournalEntry {
	if strings.TrimSpace(title) == "" {
		title = DefaultEntryTitle
	}
	now := time.Now().UTC()
	return &JournalEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Content:   content,
		Mood:      mood,
		IsDraft:   isDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsValidID 检查 ID 是否为带连字符的标准 UUID 文本，与数据库 uuid 列一致
func IsValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// OwnedBy 检查条目是否属于指定用户
func (e *JournalEntry) OwnedBy(userID string) bool {
	return e != nil && userID != "" && e.UserID == userID
}
