package dto

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"odyscribe-api/internal/domain/entity"
	"odyscribe-api/internal/domain/repository"
)

// BindOptionalPage 解析分页参数，未携带 page/page_size 时返回 nil
func BindOptionalPage(c *gin.Context) *repository.Pagination {
	rawPage, hasPage := c.GetQuery("page")
	rawSize, hasSize := c.GetQuery("page_size")
	if !hasPage && !hasSize {
		return nil
	}
	p := repository.NewPagination(
		parseIntWithDefault(rawPage, 1),
		parseIntWithDefault(rawSize, 20),
	)
	return &p
}

// BindEntryFilter 解析仪表盘筛选参数
func BindEntryFilter(c *gin.Context) *repository.EntryFilter {
	f := &repository.EntryFilter{
		Mood:  entity.Mood(strings.TrimSpace(c.Query("mood"))),
		Query: strings.TrimSpace(c.Query("q")),
		Order: repository.SortOrderDesc,
	}
	if strings.EqualFold(c.Query("sort"), "oldest") {
		f.Order = repository.SortOrderAsc
	}
	if raw, ok := c.GetQuery("drafts"); ok {
		if v, err := strconv.ParseBool(raw); err == nil {
			f.Drafts = &v
		}
	}
	return f
}

// NewPageMeta 由分页结果生成元数据
func NewPageMeta[T any](res *repository.PagedResult[T]) *PageMeta {
	return &PageMeta{
		Page:       res.Page,
		PageSize:   res.PageSize,
		Total:      res.Total,
		TotalPages: res.TotalPages,
	}
}

func parseIntWithDefault(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return val
}
