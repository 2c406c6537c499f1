package utils

import (
	"math"

	"github.com/lonshanworld/inventory-forecasting/models"
)

// Paging defaults and limits.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// CreatePagination creates a PaginationInfo for a page of totalItems.
func CreatePagination(totalItems, page, pageSize int) models.PaginationInfo {
	page, pageSize = NormalizePage(page, pageSize)
	totalPages := int(math.Ceil(float64(totalItems) / float64(pageSize)))

	return models.PaginationInfo{
		TotalItems:  totalItems,
		CurrentPage: page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
	}
}

// NormalizePage clamps page and pageSize to usable values.
func NormalizePage(page, pageSize int) (int, int) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page <= 0 {
		page = 1
	}
	return page, pageSize
}

// PageOffset returns the row offset of page.
func PageOffset(page, pageSize int) int {
	page, pageSize = NormalizePage(page, pageSize)
	return (page - 1) * pageSize
}
