package gate

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/XaviFP/manabi/common/config"
	"github.com/XaviFP/manabi/common/pagination"
	"github.com/XaviFP/manabi/learning/internal/achievement"
	"github.com/XaviFP/manabi/learning/internal/assessment"
	"github.com/XaviFP/manabi/learning/internal/course"
	"github.com/XaviFP/manabi/learning/internal/learning"
)

const (
	userIDStr    = "4e37a600-c29e-4d0f-af44-66f2cd8cc1c9"
	sessionIDStr = "fb9ffe2c-ad66-4766-9b7b-46fd5d9acd72"
)

var (
	userID    = uuid.MustParse(userIDStr)
	sessionID = uuid.MustParse(sessionIDStr)
	adminCfg  = config.AdminConfig{HeaderName: "X-Admin-Token", HeaderSecret: "secret123"}
)

func newRouter(engine learning.Engine) *gin.Engine {
	router := gin.New()
	RegisterRoutes(router.Group("/"), engine, adminCfg)

	return router
}

func do(router *gin.Engine, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestCompleteLesson(t *testing.T) {
	path := "/users/" + userIDStr + "/courses/c1/lessons/l2/complete"

	t.Run("success", func(t *testing.T) {
		engine := &learning.EngineMock{}
		engine.On("MarkLessonComplete", mock.Anything, userID, "c1", "l2").Return(learning.CompletionResult{
			Enrollment: course.Enrollment{UserID: userID, CourseID: "c1"},
			Progress:   course.Progress{CourseID: "c1", CompletedLessons: 2, TotalLessons: 4},
			NewBadges:  []achievement.EarnedBadge{},
		}, nil)

		w := do(newRouter(engine), http.MethodPost, path, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp learning.CompletionResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Progress.CompletedLessons)
		engine.AssertExpectations(t)
	})

	t.Run("failure_locked", func(t *testing.T) {
		engine := &learning.EngineMock{}
		engine.On("MarkLessonComplete", mock.Anything, userID, "c1", "l2").
			Return(learning.CompletionResult{}, errors.Annotatef(course.ErrLocked, "lesson %q", "l2"))

		w := do(newRouter(engine), http.MethodPost, path, nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "lesson is locked")
	})

	t.Run("failure_lesson_not_found", func(t *testing.T) {
		engine := &learning.EngineMock{}
		engine.On("MarkLessonComplete", mock.Anything, userID, "c1", "l2").
			Return(learning.CompletionResult{}, errors.Trace(course.ErrLessonNotFound))

		w := do(newRouter(engine), http.MethodPost, path, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("failure_invalid_user_id", func(t *testing.T) {
		engine := &learning.EngineMock{}

		w := do(newRouter(engine), http.MethodPost, "/users/not-a-uuid/courses/c1/lessons/l2/complete", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid user id format")
		engine.AssertNotCalled(t, "MarkLessonComplete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("failure_unexpected_error_is_hidden", func(t *testing.T) {
		engine := &learning.EngineMock{}
		engine.On("MarkLessonComplete", mock.Anything, userID, "c1", "l2").
			Return(learning.CompletionResult{}, errors.New("connection refused"))

		w := do(newRouter(engine), http.MethodPost, path, nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}

func TestGetLocks(t *testing.T) {
	engine := &learning.EngineMock{}
	engine.On("LockState", mock.Anything, userID, "c1").Return(course.LockState{"l1": false, "l2": true}, nil)

	w := do(newRouter(engine), http.MethodGet, "/users/"+userIDStr+"/courses/c1/locks", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		CourseID string          `json:"course_id"`
		Locks    map[string]bool `json:"locks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "c1", resp.CourseID)
	assert.Equal(t, map[string]bool{"l1": false, "l2": true}, resp.Locks)
}

func TestGetSummary(t *testing.T) {
	engine := &learning.EngineMock{}
	engine.On("Summary", mock.Anything, userID).Return(course.Summary{
		CompletedCourses:  1,
		InProgressCourses: 2,
		AverageProgress:   62.5,
		StudyTime:         90 * time.Minute,
	}, nil)

	w := do(newRouter(engine), http.MethodGet, "/users/"+userIDStr+"/summary", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"completed_courses": 1,
		"in_progress_courses": 2,
		"average_progress": 62.5,
		"study_time_seconds": 5400
	}`, w.Body.String())
}

func TestPutStructure(t *testing.T) {
	structure := course.CourseStructure{
		CourseID: "ignored",
		Title:    "Go basics",
		Modules: []course.Module{
			{ID: "m1", Lessons: []course.Lesson{{ID: "l1", Type: course.LessonTypeVideo}}},
		},
	}

	t.Run("success", func(t *testing.T) {
		engine := &learning.EngineMock{}
		engine.On("StoreCourseStructure", mock.Anything, mock.MatchedBy(func(s course.CourseStructure) bool {
			return s.CourseID == "c1" && s.Title == "Go basics"
		})).Return(nil)

		w := do(newRouter(engine), http.MethodPut, "/courses/c1/structure", structure, adminCfg.HeaderName, adminCfg.HeaderSecret)

		assert.Equal(t, http.StatusOK, w.Code)
		engine.AssertExpectations(t)
	})

	t.Run("failure_validation", func(t *testing.T) {
		ve := course.NewValidationErrors()
		ve.Add(course.ErrorKeyDuplicateLesson)

		engine := &learning.EngineMock{}
		engine.On("StoreCourseStructure", mock.Anything, mock.Anything).Return(ve)

		w := do(newRouter(engine), http.MethodPut, "/courses/c1/structure", structure, adminCfg.HeaderName, adminCfg.HeaderSecret)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.JSONEq(t, `{"errors":["DUPLICATE_LESSON"]}`, w.Body.String())
	})

	t.Run("failure_not_admin", func(t *testing.T) {
		engine := &learning.EngineMock{}

		w := do(newRouter(engine), http.MethodPut, "/courses/c1/structure", structure)

		assert.Equal(t, http.StatusForbidden, w.Code)
		engine.AssertNotCalled(t, "StoreCourseStructure", mock.Anything, mock.Anything)
	})
}

func TestGetAssessment_HidesCorrectOptions(t *testing.T) {
	engine := &learning.EngineMock{}
	engine.On("Assessment", mock.Anything, "quiz-1").Return(assessment.Definition{
		ID:               "quiz-1",
		Kind:             assessment.KindQuiz,
		TimeLimitSeconds: 60,
		PassingScore:     20,
		Questions: []assessment.Question{
			{ID: "q1", Kind: assessment.QuestionKindSingleChoice, Options: []string{"A", "B"}, CorrectOption: "A", Points: 20},
		},
	}, nil)

	w := do(newRouter(engine), http.MethodGet, "/assessments/quiz-1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "correct_option")

	var resp definitionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 20, resp.MaxScore)
	assert.Equal(t, []string{"A", "B"}, resp.Questions[0].Options)
}

func TestStartSession(t *testing.T) {
	path := "/users/" + userIDStr + "/assessments/quiz-1/sessions"

	t.Run("standalone", func(t *testing.T) {
		engine := &learning.EngineMock{}
		engine.On("StartAssessment", mock.Anything, userID, "quiz-1", learning.QuizTarget{}).
			Return(assessment.Snapshot{ID: sessionID, DefinitionID: "quiz-1", Status: assessment.StatusInProgress}, nil)

		w := do(newRouter(engine), http.MethodPost, path, nil)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), sessionIDStr)
	})

	t.Run("quiz_lesson", func(t *testing.T) {
		target := learning.QuizTarget{CourseID: "c1", LessonID: "l4"}
		engine := &learning.EngineMock{}
		engine.On("StartAssessment", mock.Anything, userID, "quiz-1", target).
			Return(assessment.Snapshot{ID: sessionID}, nil)

		w := do(newRouter(engine), http.MethodPost, path, target)

		assert.Equal(t, http.StatusCreated, w.Code)
		engine.AssertExpectations(t)
	})

	t.Run("failure_half_target", func(t *testing.T) {
		engine := &learning.EngineMock{}

		w := do(newRouter(engine), http.MethodPost, path, learning.QuizTarget{CourseID: "c1"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("failure_quiz_locked", func(t *testing.T) {
		engine := &learning.EngineMock{}
		engine.On("StartAssessment", mock.Anything, userID, "quiz-1", mock.Anything).
			Return(assessment.Snapshot{}, errors.Trace(course.ErrLocked))

		w := do(newRouter(engine), http.MethodPost, path, learning.QuizTarget{CourseID: "c1", LessonID: "l4"})

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestSessionMutations(t *testing.T) {
	base := "/users/" + userIDStr + "/sessions/" + sessionIDStr

	t.Run("answer", func(t *testing.T) {
		engine := &learning.EngineMock{}
		engine.On("Answer", mock.Anything, userID, sessionID, "q1", "A").
			Return(assessment.Snapshot{ID: sessionID, Answers: map[string]string{"q1": "A"}}, nil)

		w := do(newRouter(engine), http.MethodPut, base+"/answers/q1", gin.H{"value": "A"})

		assert.Equal(t, http.StatusOK, w.Code)
		engine.AssertExpectations(t)
	})

	t.Run("answer_after_submit", func(t *testing.T) {
		engine := &learning.EngineMock{}
		engine.On("Answer", mock.Anything, userID, sessionID, "q1", "A").
			Return(assessment.Snapshot{}, errors.Trace(assessment.ErrSubmitted))

		w := do(newRouter(engine), http.MethodPut, base+"/answers/q1", gin.H{"value": "A"})

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("goto_first_question", func(t *testing.T) {
		engine := &learning.EngineMock{}
		engine.On("GoTo", mock.Anything, userID, sessionID, 0).Return(assessment.Snapshot{ID: sessionID}, nil)

		w := do(newRouter(engine), http.MethodPost, base+"/goto", gin.H{"index": 0})

		assert.Equal(t, http.StatusOK, w.Code)
		engine.AssertExpectations(t)
	})

	t.Run("goto_out_of_range", func(t *testing.T) {
		engine := &learning.EngineMock{}
		engine.On("GoTo", mock.Anything, userID, sessionID, 7).
			Return(assessment.Snapshot{}, errors.Trace(assessment.ErrOutOfRange))

		w := do(newRouter(engine), http.MethodPost, base+"/goto", gin.H{"index": 7})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("goto_missing_index", func(t *testing.T) {
		engine := &learning.EngineMock{}

		w := do(newRouter(engine), http.MethodPost, base+"/goto", gin.H{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("tick_auto_submits", func(t *testing.T) {
		engine := &learning.EngineMock{}
		engine.On("Tick", mock.Anything, userID, sessionID, 60).Return(learning.TickResult{
			Snapshot:      assessment.Snapshot{ID: sessionID, Status: assessment.StatusSubmitted},
			AutoSubmitted: true,
			Submission:    &learning.SubmissionResult{Outcome: assessment.Outcome{AutomaticScore: 20, MaxScore: 50}},
		}, nil)

		w := do(newRouter(engine), http.MethodPost, base+"/tick", gin.H{"elapsed_seconds": 60})

		assert.Equal(t, http.StatusOK, w.Code)
		var resp learning.TickResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.AutoSubmitted)
		require.NotNil(t, resp.Submission)
		assert.Equal(t, 20, resp.Submission.Outcome.AutomaticScore)
	})

	t.Run("tick_negative", func(t *testing.T) {
		engine := &learning.EngineMock{}
		engine.On("Tick", mock.Anything, userID, sessionID, -5).
			Return(learning.TickResult{}, errors.Trace(assessment.ErrInvalidElapsed))

		w := do(newRouter(engine), http.MethodPost, base+"/tick", gin.H{"elapsed_seconds": -5})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("submit_someone_elses_session", func(t *testing.T) {
		engine := &learning.EngineMock{}
		engine.On("Submit", mock.Anything, userID, sessionID).
			Return(learning.SubmissionResult{}, errors.Trace(assessment.ErrSessionNotFound))

		w := do(newRouter(engine), http.MethodPost, base+"/submit", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid_session_id", func(t *testing.T) {
		engine := &learning.EngineMock{}

		w := do(newRouter(engine), http.MethodPost, "/users/"+userIDStr+"/sessions/nope/submit", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid session id format")
	})
}

func TestGradeAnswer(t *testing.T) {
	path := "/sessions/" + sessionIDStr + "/grades/q3"

	t.Run("success", func(t *testing.T) {
		engine := &learning.EngineMock{}
		engine.On("GradeAnswer", mock.Anything, sessionID, "q3", 30).Return(learning.SubmissionResult{
			Outcome:   assessment.Outcome{AutomaticScore: 50, ManualScore: 30, Passed: true},
			NewBadges: []achievement.EarnedBadge{},
		}, nil)

		w := do(newRouter(engine), http.MethodPut, path, gin.H{"points": 30}, adminCfg.HeaderName, adminCfg.HeaderSecret)

		assert.Equal(t, http.StatusOK, w.Code)
		engine.AssertExpectations(t)
	})

	t.Run("failure_not_submitted", func(t *testing.T) {
		engine := &learning.EngineMock{}
		engine.On("GradeAnswer", mock.Anything, sessionID, "q3", 30).
			Return(learning.SubmissionResult{}, errors.Trace(assessment.ErrNotSubmitted))

		w := do(newRouter(engine), http.MethodPut, path, gin.H{"points": 30}, adminCfg.HeaderName, adminCfg.HeaderSecret)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("failure_wrong_secret", func(t *testing.T) {
		engine := &learning.EngineMock{}

		w := do(newRouter(engine), http.MethodPut, path, gin.H{"points": 30}, adminCfg.HeaderName, "guess")

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "invalid admin credentials")
	})
}

func TestListBadges(t *testing.T) {
	path := "/users/" + userIDStr + "/badges"

	t.Run("default_page", func(t *testing.T) {
		engine := &learning.EngineMock{}
		expected := pagination.NewOldestFirstPagination(pagination.WithFirst(DefaultPageSize))
		engine.On("ListBadges", mock.Anything, userID, expected).Return(achievement.EarnedBadgeConnection{
			Edges: []pagination.Edge[achievement.EarnedBadge]{
				{Node: achievement.EarnedBadge{BadgeID: "first-course"}, Cursor: "c1"},
			},
			PageInfo: pagination.PageInfo{EndCursor: "c1"},
		}, nil)

		w := do(newRouter(engine), http.MethodGet, path, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp achievement.EarnedBadgeConnection
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Edges, 1)
		assert.Equal(t, "first-course", resp.Edges[0].Node.BadgeID)
		engine.AssertExpectations(t)
	})

	t.Run("cursor", func(t *testing.T) {
		engine := &learning.EngineMock{}
		expected := pagination.NewOldestFirstPagination(pagination.WithFirst(5), pagination.WithAfter("abc"))
		engine.On("ListBadges", mock.Anything, userID, expected).Return(achievement.EarnedBadgeConnection{}, nil)

		w := do(newRouter(engine), http.MethodGet, path+"?first=5&after=abc", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		engine.AssertExpectations(t)
	})

	t.Run("failure_first_and_last", func(t *testing.T) {
		engine := &learning.EngineMock{}

		w := do(newRouter(engine), http.MethodGet, path+"?first=5&last=5", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid pagination parameters")
	})
}

func TestEvaluateBadges(t *testing.T) {
	engine := &learning.EngineMock{}
	engine.On("EvaluateBadges", mock.Anything, userID).Return([]achievement.EarnedBadge{{BadgeID: "first-course", UserID: userID}}, nil)

	w := do(newRouter(engine), http.MethodPost, "/users/"+userIDStr+"/badges/evaluate", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "first-course")
}

func TestGetCatalog(t *testing.T) {
	engine := &learning.EngineMock{}
	engine.On("Catalog").Return(achievement.DefaultCatalog())

	w := do(newRouter(engine), http.MethodGet, "/badges", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "marathoner")
}
