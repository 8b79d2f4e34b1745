package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/healthlearn/site/internal/pkg/response"
	"gorm.io/gorm"
)

const (
	DefaultPage = 1
	DefaultSize = 20
	MaxSize     = 100
)

// Query holds parsed pagination parameters.
type Query struct {
	Page int
	Size int
}

// Offset is the number of rows before the page.
func (q Query) Offset() int { return (q.Page - 1) * q.Size }

// FromContext extracts and clamps pagination params from the request.
func FromContext(c *gin.Context) Query {
	page := parseIntOr(c.Query("page"), DefaultPage)
	size := parseIntOr(c.Query("size"), DefaultSize)

	if page < 1 {
		page = DefaultPage
	}
	if size < 1 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	return Query{Page: page, Size: size}
}

// Paginate counts the query, then loads one page into dest (a pointer to
// a slice) with the given associations preloaded.
func Paginate(db *gorm.DB, q Query, dest interface{}, preloads ...string) (response.Pagination, error) {
	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return response.Pagination{}, err
	}

	page := db.Offset(q.Offset()).Limit(q.Size)
	for _, name := range preloads {
		page = page.Preload(name)
	}
	if err := page.Find(dest).Error; err != nil {
		return response.Pagination{}, err
	}

	return Meta(q, total), nil
}

// Meta builds the pagination envelope for total rows.
func Meta(q Query, total int64) response.Pagination {
	totalPage := int((total + int64(q.Size) - 1) / int64(q.Size))
	return response.Pagination{
		Total:       total,
		CurrentPage: q.Page,
		TotalPage:   totalPage,
		Size:        q.Size,
		HasNextPage: q.Page < totalPage,
	}
}

func parseIntOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
