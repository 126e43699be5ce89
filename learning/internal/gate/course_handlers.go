package gate

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/XaviFP/manabi/learning/internal/course"
	"github.com/XaviFP/manabi/learning/internal/learning"
)

func GetStructure(ctx *gin.Context, engine learning.Engine) {
	courseID := ctx.Param("courseId")
	if courseID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing course id"})
		return
	}

	s, err := engine.LoadCourseStructure(ctx, courseID)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, s)
}

// PutStructure replaces a course structure. The course id in the path wins
// over the one in the body.
func PutStructure(ctx *gin.Context, engine learning.Engine) {
	courseID := ctx.Param("courseId")
	if courseID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing course id"})
		return
	}

	var s course.CourseStructure
	if err := ctx.ShouldBindJSON(&s); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.CourseID = courseID

	if err := engine.StoreCourseStructure(ctx, s); err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, course.NewCourseStructure(s))
}

func Enroll(ctx *gin.Context, engine learning.Engine) {
	userID, courseID, ok := userCourseParams(ctx)
	if !ok {
		return
	}

	enrollment, err := engine.Enroll(ctx, userID, courseID)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, enrollment)
}

func GetLocks(ctx *gin.Context, engine learning.Engine) {
	userID, courseID, ok := userCourseParams(ctx)
	if !ok {
		return
	}

	locks, err := engine.LockState(ctx, userID, courseID)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"course_id": courseID, "locks": locks})
}

func GetProgress(ctx *gin.Context, engine learning.Engine) {
	userID, courseID, ok := userCourseParams(ctx)
	if !ok {
		return
	}

	report, err := engine.Progress(ctx, userID, courseID)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, report)
}

func OpenLesson(ctx *gin.Context, engine learning.Engine) {
	userID, courseID, ok := userCourseParams(ctx)
	if !ok {
		return
	}

	lesson, err := engine.OpenLesson(ctx, userID, courseID, ctx.Param("lessonId"))
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, lesson)
}

func CompleteLesson(ctx *gin.Context, engine learning.Engine) {
	userID, courseID, ok := userCourseParams(ctx)
	if !ok {
		return
	}

	res, err := engine.MarkLessonComplete(ctx, userID, courseID, ctx.Param("lessonId"))
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, res)
}

func GetCertificate(ctx *gin.Context, engine learning.Engine) {
	userID, courseID, ok := userCourseParams(ctx)
	if !ok {
		return
	}

	cert, err := engine.Certificate(ctx, userID, courseID)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, cert)
}

func GetSummary(ctx *gin.Context, engine learning.Engine) {
	userID, ok := userIDParam(ctx)
	if !ok {
		return
	}

	summary, err := engine.Summary(ctx, userID)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"completed_courses":   summary.CompletedCourses,
		"in_progress_courses": summary.InProgressCourses,
		"average_progress":    summary.AverageProgress,
		"study_time_seconds":  int64(summary.StudyTime.Seconds()),
	})
}

// userIDParam parses the :userId path parameter and answers 400 when it is
// not a uuid.
func userIDParam(ctx *gin.Context) (uuid.UUID, bool) {
	userID, err := uuid.Parse(ctx.Param("userId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id format"})
		return uuid.Nil, false
	}

	return userID, true
}

func userCourseParams(ctx *gin.Context) (uuid.UUID, string, bool) {
	userID, ok := userIDParam(ctx)
	if !ok {
		return uuid.Nil, "", false
	}

	courseID := ctx.Param("courseId")
	if courseID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing course id"})
		return uuid.Nil, "", false
	}

	return userID, courseID, true
}
