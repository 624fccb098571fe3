// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由，limited 挂在调用上游服务的路由上
func RegisterV1Routes(v1 *gin.RouterGroup, limited gin.HandlerFunc, h *RouterHandlers) {
	// 无状态叙事生成
	v1.POST("/generate-chapter", limited, h.Generate.GenerateNarrative)

	// 日记条目
	entries := v1.Group("/entries")
	{
		entries.GET("", h.Entry.ListEntries)
		entries.POST("", h.Entry.CreateEntry)
		entries.GET("/:id", h.Entry.GetEntry)
		entries.PUT("/:id", h.Entry.UpdateEntry)
		entries.DELETE("/:id", h.Entry.DeleteEntry)

		entries.POST("/:id/chapter", h.Chapter.PrepareChapter)
		entries.POST("/:id/chapter/generate", limited, h.Chapter.GenerateChapter)
	}

	// 故事书
	chapters := v1.Group("/chapters")
	{
		chapters.GET("", h.Chapter.ListChapters)
		chapters.GET("/:id", h.Chapter.GetChapter)
		chapters.PUT("/:id", h.Chapter.UpdateChapter)
		chapters.DELETE("/:id", h.Chapter.DeleteChapter)
	}

	v1.POST("/narration", limited, h.Narration.Narrate)

	v1.GET("/profile/stats", h.Profile.Stats)
}
