package gate

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/XaviFP/manabi/learning/internal/assessment"
	"github.com/XaviFP/manabi/learning/internal/learning"
)

type questionResponse struct {
	ID      string                  `json:"id"`
	Kind    assessment.QuestionKind `json:"kind"`
	Prompt  string                  `json:"prompt"`
	Options []string                `json:"options,omitempty"`
	Points  int                     `json:"points"`
}

type definitionResponse struct {
	ID               string             `json:"id"`
	Title            string             `json:"title"`
	Kind             assessment.Kind    `json:"kind"`
	TimeLimitSeconds int                `json:"time_limit_seconds"`
	PassingScore     int                `json:"passing_score"`
	MaxScore         int                `json:"max_score"`
	Questions        []questionResponse `json:"questions"`
}

// toDefinitionResponse is what learners get to see: no correct options.
func toDefinitionResponse(d assessment.Definition) definitionResponse {
	out := definitionResponse{
		ID:               d.ID,
		Title:            d.Title,
		Kind:             d.Kind,
		TimeLimitSeconds: d.TimeLimitSeconds,
		PassingScore:     d.PassingScore,
		MaxScore:         d.MaxScore(),
		Questions:        make([]questionResponse, len(d.Questions)),
	}

	for i, q := range d.Questions {
		out.Questions[i] = questionResponse{
			ID:      q.ID,
			Kind:    q.Kind,
			Prompt:  q.Prompt,
			Options: q.Options,
			Points:  q.Points,
		}
	}

	return out
}

func GetAssessment(ctx *gin.Context, engine learning.Engine) {
	d, err := engine.Assessment(ctx, ctx.Param("definitionId"))
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toDefinitionResponse(d))
}

func PutAssessment(ctx *gin.Context, engine learning.Engine) {
	var d assessment.Definition
	if err := ctx.ShouldBindJSON(&d); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d.ID = ctx.Param("definitionId")

	if err := engine.StoreAssessment(ctx, d); err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, d)
}

func StartSession(ctx *gin.Context, engine learning.Engine) {
	userID, ok := userIDParam(ctx)
	if !ok {
		return
	}

	// The body is optional; without one the attempt gates no lesson.
	var target learning.QuizTarget
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&target); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if (target.CourseID == "") != (target.LessonID == "") {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "course_id and lesson_id go together"})
		return
	}

	snap, err := engine.StartAssessment(ctx, userID, ctx.Param("definitionId"), target)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, snap)
}

func GetSession(ctx *gin.Context, engine learning.Engine) {
	userID, sessionID, ok := userSessionParams(ctx)
	if !ok {
		return
	}

	snap, err := engine.SessionSnapshot(ctx, userID, sessionID)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, snap)
}

func AnswerQuestion(ctx *gin.Context, engine learning.Engine) {
	userID, sessionID, ok := userSessionParams(ctx)
	if !ok {
		return
	}

	var req struct {
		Value string `json:"value"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := engine.Answer(ctx, userID, sessionID, ctx.Param("questionId"), req.Value)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, snap)
}

func GoToQuestion(ctx *gin.Context, engine learning.Engine) {
	userID, sessionID, ok := userSessionParams(ctx)
	if !ok {
		return
	}

	var req struct {
		Index *int `json:"index" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := engine.GoTo(ctx, userID, sessionID, *req.Index)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, snap)
}

func Tick(ctx *gin.Context, engine learning.Engine) {
	userID, sessionID, ok := userSessionParams(ctx)
	if !ok {
		return
	}

	var req struct {
		ElapsedSeconds int `json:"elapsed_seconds"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := engine.Tick(ctx, userID, sessionID, req.ElapsedSeconds)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, res)
}

func Submit(ctx *gin.Context, engine learning.Engine) {
	userID, sessionID, ok := userSessionParams(ctx)
	if !ok {
		return
	}

	res, err := engine.Submit(ctx, userID, sessionID)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, res)
}

func GradeAnswer(ctx *gin.Context, engine learning.Engine) {
	sessionID, err := uuid.Parse(ctx.Param("sessionId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id format"})
		return
	}

	var req struct {
		Points *int `json:"points" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := engine.GradeAnswer(ctx, sessionID, ctx.Param("questionId"), *req.Points)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, res)
}

func userSessionParams(ctx *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := userIDParam(ctx)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	sessionID, err := uuid.Parse(ctx.Param("sessionId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id format"})
		return uuid.Nil, uuid.Nil, false
	}

	return userID, sessionID, true
}
