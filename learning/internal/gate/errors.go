package gate

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"

	"github.com/XaviFP/manabi/common/pagination"
	"github.com/XaviFP/manabi/learning/internal/achievement"
	"github.com/XaviFP/manabi/learning/internal/assessment"
	"github.com/XaviFP/manabi/learning/internal/course"
)

var (
	conflictErrors = []error{
		course.ErrLocked,
		course.ErrQuizNotPassed,
		course.ErrNotQuizLesson,
		assessment.ErrSubmitted,
		assessment.ErrNotSubmitted,
	}

	unprocessableErrors = []error{
		assessment.ErrInvalidDefinition,
		assessment.ErrInvalidQuestion,
		assessment.ErrInvalidGrade,
		assessment.ErrInvalidElapsed,
		assessment.ErrInvalidSnapshot,
	}

	badRequestErrors = []error{
		assessment.ErrOutOfRange,
		pagination.ErrInvalidPagination,
	}
)

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case course.IsNotFound(err), assessment.IsNotFound(err), errors.Is(err, achievement.ErrBadgeNotFound):
		return http.StatusNotFound
	case isAny(err, conflictErrors):
		return http.StatusConflict
	case isAny(err, unprocessableErrors):
		return http.StatusUnprocessableEntity
	case isAny(err, badRequestErrors):
		return http.StatusBadRequest
	}

	var ve *course.ValidationErrors
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity
	}

	return http.StatusInternalServerError
}

func writeError(ctx *gin.Context, err error) {
	var ve *course.ValidationErrors
	if errors.As(err, &ve) {
		ctx.JSON(http.StatusUnprocessableEntity, ve)
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed", "path", ctx.FullPath(), "error", errors.ErrorStack(err))
		ctx.JSON(status, gin.H{"error": "internal error"})
		return
	}

	ctx.JSON(status, gin.H{"error": err.Error()})
}
