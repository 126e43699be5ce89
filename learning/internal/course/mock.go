package course

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type RepositoryMock struct {
	mock.Mock
}

func (m *RepositoryMock) GetCourseStructure(ctx context.Context, courseID string) (CourseStructure, error) {
	args := m.Called(ctx, courseID)
	return args.Get(0).(CourseStructure), args.Error(1)
}

func (m *RepositoryMock) StoreCourseStructure(ctx context.Context, s CourseStructure) error {
	return m.Called(ctx, s).Error(0)
}

func (m *RepositoryMock) GetEnrollment(ctx context.Context, userID uuid.UUID, courseID string) (Enrollment, error) {
	args := m.Called(ctx, userID, courseID)
	return args.Get(0).(Enrollment), args.Error(1)
}

func (m *RepositoryMock) GetEnrollments(ctx context.Context, userID uuid.UUID) ([]Enrollment, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]Enrollment), args.Error(1)
}

func (m *RepositoryMock) StoreEnrollment(ctx context.Context, e Enrollment) error {
	return m.Called(ctx, e).Error(0)
}

func (m *RepositoryMock) GetCompletions(ctx context.Context, userID uuid.UUID, courseID string) ([]CompletionRecord, error) {
	args := m.Called(ctx, userID, courseID)
	return args.Get(0).([]CompletionRecord), args.Error(1)
}

func (m *RepositoryMock) AppendCompletion(ctx context.Context, userID uuid.UUID, courseID string, r CompletionRecord) error {
	return m.Called(ctx, userID, courseID, r).Error(0)
}

func (m *RepositoryMock) GetCertificate(ctx context.Context, userID uuid.UUID, courseID string) (Certificate, error) {
	args := m.Called(ctx, userID, courseID)
	return args.Get(0).(Certificate), args.Error(1)
}

func (m *RepositoryMock) StoreCertificate(ctx context.Context, c Certificate) error {
	return m.Called(ctx, c).Error(0)
}
