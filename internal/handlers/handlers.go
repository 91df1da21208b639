package handlers

import (
	"database/sql"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	DB *sql.DB
}

// Querier lets the points helpers run against either the pool or an
// open transaction.
type Querier interface {
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// The request tables show 7 rows per page. The cap keeps a single
// request from materializing an arbitrarily large result set.
const (
	defaultPageSize = 7
	maxPageSize     = 100
)

// paginate parses page/page_size query params, clamps the page to
// [1, totalPages] and returns the page, offset and page count.
// An out-of-range page is never turned into an out-of-range query.
func paginate(c *gin.Context, total int) (page, pageSize, offset, totalPages int) {
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", ""))
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	totalPages = int(math.Ceil(float64(total) / float64(pageSize)))
	if totalPages < 1 {
		totalPages = 1
	}

	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	offset = (page - 1) * pageSize
	return page, pageSize, offset, totalPages
}

// actor returns the display name of the authenticated user, for the
// reviewed_by / processed_by / cancelled_by audit columns.
func actor(c *gin.Context) string {
	name, _ := c.Get("fullName")
	s, _ := name.(string)
	return s
}

// currentUserID returns the authenticated user's ID from the context.
func currentUserID(c *gin.Context) int64 {
	raw, _ := c.Get("userID")
	id, _ := raw.(int64)
	return id
}
