package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		page, size       int
		wantPage, wantSz int
	}{
		{0, 0, 1, DefaultPageSize},
		{3, 10, 3, 10},
		{-2, 500, 1, MaxPageSize},
	}
	for _, tt := range tests {
		p := NewPagination(tt.page, tt.size)
		assert.Equal(t, tt.wantPage, p.Page)
		assert.Equal(t, tt.wantSz, p.PageSize)
	}

	p := NewPagination(3, 10)
	assert.Equal(t, 20, p.Offset())
	assert.Equal(t, 10, p.Limit())
}

func TestNewPagedResult_TotalPages(t *testing.T) {
	assert.Equal(t, 2, NewPagedResult([]int{}, 7, NewPagination(2, 5)).TotalPages)
	assert.Equal(t, 2, NewPagedResult([]int{}, 10, NewPagination(1, 5)).TotalPages)
	assert.Equal(t, 0, NewPagedResult([]int{}, 0, NewPagination(1, 5)).TotalPages)

	all := NewUnpagedResult([]string{"a", "b"})
	assert.Equal(t, int64(2), all.Total)
	assert.Equal(t, 1, all.TotalPages)
}
