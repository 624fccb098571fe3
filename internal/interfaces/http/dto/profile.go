package dto

import (
	"odyscribe-api/internal/application/journal"
)

// StatsResponse 个人写作统计
type StatsResponse struct {
	TotalEntries  int64            `json:"total_entries"`
	TotalChapters int64            `json:"total_chapters"`
	Streak        int              `json:"streak"`
	LatestEntry   *EntryResponse   `json:"latest_entry"`
	LatestChapter *ChapterResponse `json:"latest_chapter"`
}

// ToStatsResponse 转换统计
func ToStatsResponse(s *journal.Stats) *StatsResponse {
	return &StatsResponse{
		TotalEntries:  s.TotalEntries,
		TotalChapters: s.TotalChapters,
		Streak:        s.Streak,
		LatestEntry:   ToEntryResponse(s.LatestEntry),
		LatestChapter: ToChapterResponse(s.LatestChapter, nil),
	}
}
