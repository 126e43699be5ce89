package gate

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"

	"github.com/XaviFP/manabi/common/pagination"
	"github.com/XaviFP/manabi/learning/internal/learning"
)

const DefaultPageSize = 20

func ListBadges(ctx *gin.Context, engine learning.Engine) {
	userID, ok := userIDParam(ctx)
	if !ok {
		return
	}

	p, err := parsePagination(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid pagination parameters"})
		return
	}

	conn, err := engine.ListBadges(ctx, userID, p)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, conn)
}

func EvaluateBadges(ctx *gin.Context, engine learning.Engine) {
	userID, ok := userIDParam(ctx)
	if !ok {
		return
	}

	earned, err := engine.EvaluateBadges(ctx, userID)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"new_badges": earned})
}

func GetCatalog(ctx *gin.Context, engine learning.Engine) {
	ctx.JSON(http.StatusOK, gin.H{"badges": engine.Catalog()})
}

// parsePagination reads first/last/after/before. Badges are listed oldest
// first; without a page size DefaultPageSize applies.
func parsePagination(ctx *gin.Context) (pagination.Pagination, error) {
	var first, last int

	if raw := ctx.Query("first"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return pagination.Pagination{}, errors.Trace(err)
		}
		first = v
	}

	if raw := ctx.Query("last"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return pagination.Pagination{}, errors.Trace(err)
		}
		last = v
	}

	if first == 0 && last == 0 {
		first = DefaultPageSize
	}

	p := pagination.NewOldestFirstPagination(
		pagination.WithFirst(first),
		pagination.WithLast(last),
		pagination.WithAfter(pagination.Cursor(ctx.Query("after"))),
		pagination.WithBefore(pagination.Cursor(ctx.Query("before"))),
	)

	if err := p.Validate(); err != nil {
		return pagination.Pagination{}, errors.Trace(err)
	}

	return p, nil
}
