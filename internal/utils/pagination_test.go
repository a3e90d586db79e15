package utils

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPage(t *testing.T) {
	cases := []struct {
		name        string
		page, size  int
		total       int64
		totalPages  int
		hasNext     bool
		hasPrevious bool
	}{
		{"first of many", 0, 20, 45, 3, true, false},
		{"middle", 1, 20, 45, 3, true, true},
		{"last", 2, 20, 45, 3, false, true},
		{"exact fit", 0, 20, 40, 2, true, false},
		{"empty", 0, 20, 0, 0, false, false},
		{"zero size clamps to one", 0, 0, 3, 3, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPage([]string{}, tc.page, tc.size, tc.total)
			assert.Equal(t, tc.totalPages, p.TotalPages)
			assert.Equal(t, tc.hasNext, p.HasNext)
			assert.Equal(t, tc.hasPrevious, p.HasPrevious)
			assert.Equal(t, tc.total, p.TotalElements)
		})
	}
}

func TestGetPageParams(t *testing.T) {
	cases := []struct {
		query string
		page  int
		size  int
	}{
		{"", 0, 20},
		{"?page=2&size=50", 2, 50},
		{"?page=-1&size=0", 0, 20},
		{"?page=abc&size=xyz", 0, 20},
		{"?size=9999", 0, 200},
	}
	for _, tc := range cases {
		t.Run("query "+tc.query, func(t *testing.T) {
			app := fiber.New()
			var page, size int
			app.Get("/", func(c *fiber.Ctx) error {
				page, size = GetPageParams(c, 20, 200)
				return c.SendStatus(fiber.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/"+tc.query, nil))
			require.NoError(t, err)
			require.Equal(t, fiber.StatusOK, resp.StatusCode)
			assert.Equal(t, tc.page, page, fmt.Sprintf("page for %q", tc.query))
			assert.Equal(t, tc.size, size, fmt.Sprintf("size for %q", tc.query))
		})
	}
}
