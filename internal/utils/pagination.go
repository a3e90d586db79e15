package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Page is the uniform paged response shape.
type Page struct {
	Content       interface{} `json:"content"`
	Page          int         `json:"page"`
	Size          int         `json:"size"`
	TotalElements int64       `json:"totalElements"`
	TotalPages    int         `json:"totalPages"`
	HasNext       bool        `json:"hasNext"`
	HasPrevious   bool        `json:"hasPrevious"`
}

// NewPage wraps a zero-based page of content.
func NewPage(content interface{}, page, size int, total int64) Page {
	if size < 1 {
		size = 1
	}
	totalPages := int((total + int64(size) - 1) / int64(size))
	return Page{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
		HasNext:       page+1 < totalPages,
		HasPrevious:   page > 0,
	}
}

// GetPageParams extracts zero-based page and size from query parameters,
// falling back to defaults on garbage input.
func GetPageParams(c *fiber.Ctx, defaultSize, maxSize int) (page, size int) {
	page, err := strconv.Atoi(c.Query("page", "0"))
	if err != nil || page < 0 {
		page = 0
	}
	size, err = strconv.Atoi(c.Query("size", strconv.Itoa(defaultSize)))
	if err != nil || size < 1 {
		size = defaultSize
	}
	if size > maxSize {
		size = maxSize
	}
	return page, size
}
