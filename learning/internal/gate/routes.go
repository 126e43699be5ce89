package gate

import (
	"github.com/gin-gonic/gin"

	"github.com/XaviFP/manabi/common/config"
	"github.com/XaviFP/manabi/learning/internal/learning"
)

// handler adapts a handler taking the engine to a gin.HandlerFunc.
func handler(engine learning.Engine, fn func(*gin.Context, learning.Engine)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		fn(ctx, engine)
	}
}

func RegisterRoutes(r *gin.RouterGroup, engine learning.Engine, adminCfg config.AdminConfig) {
	admin := RequireAdmin(adminCfg)

	courses := r.Group("/courses")
	{
		courses.GET("/:courseId/structure", handler(engine, GetStructure))
		courses.PUT("/:courseId/structure", admin, handler(engine, PutStructure))
	}

	assessments := r.Group("/assessments")
	{
		assessments.GET("/:definitionId", handler(engine, GetAssessment))
		assessments.PUT("/:definitionId", admin, handler(engine, PutAssessment))
	}

	r.PUT("/sessions/:sessionId/grades/:questionId", admin, handler(engine, GradeAnswer))
	r.GET("/badges", handler(engine, GetCatalog))

	users := r.Group("/users/:userId")
	{
		users.GET("/summary", handler(engine, GetSummary))

		users.POST("/courses/:courseId/enroll", handler(engine, Enroll))
		users.GET("/courses/:courseId/locks", handler(engine, GetLocks))
		users.GET("/courses/:courseId/progress", handler(engine, GetProgress))
		users.GET("/courses/:courseId/certificate", handler(engine, GetCertificate))
		users.POST("/courses/:courseId/lessons/:lessonId/open", handler(engine, OpenLesson))
		users.POST("/courses/:courseId/lessons/:lessonId/complete", handler(engine, CompleteLesson))

		users.POST("/assessments/:definitionId/sessions", handler(engine, StartSession))
		users.GET("/sessions/:sessionId", handler(engine, GetSession))
		users.PUT("/sessions/:sessionId/answers/:questionId", handler(engine, AnswerQuestion))
		users.POST("/sessions/:sessionId/goto", handler(engine, GoToQuestion))
		users.POST("/sessions/:sessionId/tick", handler(engine, Tick))
		users.POST("/sessions/:sessionId/submit", handler(engine, Submit))

		users.GET("/badges", handler(engine, ListBadges))
		users.POST("/badges/evaluate", handler(engine, EvaluateBadges))
	}
}
