package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageLimit = int64(20)
	maxPageLimit     = int64(100)
)

var errInvalidPagination = errors.New("invalid pagination params")

// parsePaginationParams returns ok=false when neither page nor limit is
// given; the listing is then returned unpaginated.
func parsePaginationParams(pageStr, limitStr string) (page, limit int64, ok bool, err error) {
	if pageStr == "" && limitStr == "" {
		return 0, 0, false, nil
	}

	page = 1
	limit = defaultPageLimit

	if pageStr != "" {
		p, err := strconv.ParseInt(pageStr, 10, 64)
		if err != nil || p < 1 {
			return 0, 0, false, errInvalidPagination
		}
		page = p
	}

	if limitStr != "" {
		l, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil || l < 1 {
			return 0, 0, false, errInvalidPagination
		}
		limit = l
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	return page, limit, true, nil
}

func paginationBlock(page, limit, total int64) gin.H {
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return gin.H{
		"page":  page,
		"limit": limit,
		"total": total,
		"pages": pages,
	}
}
