package pagination

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// Meta is the pagination block returned in response metadata.
type Meta struct {
	Count      int64 `json:"count"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int64 `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// FromQuery reads ?page= and ?page_size= with the usual clamping.
func FromQuery(c *fiber.Ctx) Page {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	size, _ := strconv.Atoi(c.Query("page_size", strconv.Itoa(DefaultPageSize)))
	return Normalize(Page{Number: page, Size: size})
}

// Normalize clamps p into valid bounds.
func Normalize(p Page) Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Apply adds OFFSET/LIMIT for p to query.
func Apply(query *gorm.DB, p Page) *gorm.DB {
	p = Normalize(p)
	return query.Offset((p.Number - 1) * p.Size).Limit(p.Size)
}

// BuildMeta creates pagination metadata for total rows.
func BuildMeta(p Page, total int64) Meta {
	p = Normalize(p)
	totalPages := (total + int64(p.Size) - 1) / int64(p.Size)
	return Meta{
		Count:      total,
		Page:       p.Number,
		PageSize:   p.Size,
		TotalPages: totalPages,
		HasNext:    int64(p.Number) < totalPages,
		HasPrev:    p.Number > 1,
	}
}

// Ordering resolves a DRF-style ?ordering= value ("created_at", "-updated_at")
// against allowed columns. Unknown fields fall back to fallback.
func Ordering(value string, allowed map[string]string, fallback string) string {
	value = strings.TrimSpace(value)
	desc := strings.HasPrefix(value, "-")
	field := strings.TrimPrefix(value, "-")
	col, ok := allowed[field]
	if !ok {
		return fallback
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}
