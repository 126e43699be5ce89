package learning

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/XaviFP/manabi/common/pagination"
	"github.com/XaviFP/manabi/learning/internal/achievement"
	"github.com/XaviFP/manabi/learning/internal/assessment"
	"github.com/XaviFP/manabi/learning/internal/course"
)

type EngineMock struct {
	mock.Mock
}

func (m *EngineMock) LoadCourseStructure(ctx context.Context, courseID string) (course.CourseStructure, error) {
	args := m.Called(ctx, courseID)
	return args.Get(0).(course.CourseStructure), args.Error(1)
}

func (m *EngineMock) StoreCourseStructure(ctx context.Context, s course.CourseStructure) error {
	return m.Called(ctx, s).Error(0)
}

func (m *EngineMock) Enroll(ctx context.Context, userID uuid.UUID, courseID string) (course.Enrollment, error) {
	args := m.Called(ctx, userID, courseID)
	return args.Get(0).(course.Enrollment), args.Error(1)
}

func (m *EngineMock) LockState(ctx context.Context, userID uuid.UUID, courseID string) (course.LockState, error) {
	args := m.Called(ctx, userID, courseID)
	return args.Get(0).(course.LockState), args.Error(1)
}

func (m *EngineMock) OpenLesson(ctx context.Context, userID uuid.UUID, courseID, lessonID string) (course.Lesson, error) {
	args := m.Called(ctx, userID, courseID, lessonID)
	return args.Get(0).(course.Lesson), args.Error(1)
}

func (m *EngineMock) MarkLessonComplete(ctx context.Context, userID uuid.UUID, courseID, lessonID string) (CompletionResult, error) {
	args := m.Called(ctx, userID, courseID, lessonID)
	return args.Get(0).(CompletionResult), args.Error(1)
}

func (m *EngineMock) Progress(ctx context.Context, userID uuid.UUID, courseID string) (ProgressReport, error) {
	args := m.Called(ctx, userID, courseID)
	return args.Get(0).(ProgressReport), args.Error(1)
}

func (m *EngineMock) Summary(ctx context.Context, userID uuid.UUID) (course.Summary, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(course.Summary), args.Error(1)
}

func (m *EngineMock) Certificate(ctx context.Context, userID uuid.UUID, courseID string) (course.Certificate, error) {
	args := m.Called(ctx, userID, courseID)
	return args.Get(0).(course.Certificate), args.Error(1)
}

func (m *EngineMock) Assessment(ctx context.Context, definitionID string) (assessment.Definition, error) {
	args := m.Called(ctx, definitionID)
	return args.Get(0).(assessment.Definition), args.Error(1)
}

func (m *EngineMock) StoreAssessment(ctx context.Context, d assessment.Definition) error {
	return m.Called(ctx, d).Error(0)
}

func (m *EngineMock) StartAssessment(ctx context.Context, userID uuid.UUID, definitionID string, target QuizTarget) (assessment.Snapshot, error) {
	args := m.Called(ctx, userID, definitionID, target)
	return args.Get(0).(assessment.Snapshot), args.Error(1)
}

func (m *EngineMock) SessionSnapshot(ctx context.Context, userID, sessionID uuid.UUID) (assessment.Snapshot, error) {
	args := m.Called(ctx, userID, sessionID)
	return args.Get(0).(assessment.Snapshot), args.Error(1)
}

func (m *EngineMock) Answer(ctx context.Context, userID, sessionID uuid.UUID, questionID, value string) (assessment.Snapshot, error) {
	args := m.Called(ctx, userID, sessionID, questionID, value)
	return args.Get(0).(assessment.Snapshot), args.Error(1)
}

func (m *EngineMock) GoTo(ctx context.Context, userID, sessionID uuid.UUID, index int) (assessment.Snapshot, error) {
	args := m.Called(ctx, userID, sessionID, index)
	return args.Get(0).(assessment.Snapshot), args.Error(1)
}

func (m *EngineMock) Tick(ctx context.Context, userID, sessionID uuid.UUID, elapsedSeconds int) (TickResult, error) {
	args := m.Called(ctx, userID, sessionID, elapsedSeconds)
	return args.Get(0).(TickResult), args.Error(1)
}

func (m *EngineMock) Submit(ctx context.Context, userID, sessionID uuid.UUID) (SubmissionResult, error) {
	args := m.Called(ctx, userID, sessionID)
	return args.Get(0).(SubmissionResult), args.Error(1)
}

func (m *EngineMock) GradeAnswer(ctx context.Context, sessionID uuid.UUID, questionID string, points int) (SubmissionResult, error) {
	args := m.Called(ctx, sessionID, questionID, points)
	return args.Get(0).(SubmissionResult), args.Error(1)
}

func (m *EngineMock) UserState(ctx context.Context, userID uuid.UUID) (achievement.UserState, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(achievement.UserState), args.Error(1)
}

func (m *EngineMock) EvaluateBadges(ctx context.Context, userID uuid.UUID) ([]achievement.EarnedBadge, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]achievement.EarnedBadge), args.Error(1)
}

func (m *EngineMock) ListBadges(ctx context.Context, userID uuid.UUID, p pagination.Pagination) (achievement.EarnedBadgeConnection, error) {
	args := m.Called(ctx, userID, p)
	return args.Get(0).(achievement.EarnedBadgeConnection), args.Error(1)
}

func (m *EngineMock) Catalog() []achievement.Badge {
	return m.Called().Get(0).([]achievement.Badge)
}
