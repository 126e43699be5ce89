package assessment

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type RepositoryMock struct {
	mock.Mock
}

func (m *RepositoryMock) GetDefinition(ctx context.Context, id string) (Definition, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Definition), args.Error(1)
}

func (m *RepositoryMock) StoreDefinition(ctx context.Context, d Definition) error {
	return m.Called(ctx, d).Error(0)
}

func (m *RepositoryMock) GetSession(ctx context.Context, id uuid.UUID) (Record, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Record), args.Error(1)
}

func (m *RepositoryMock) StoreSession(ctx context.Context, r Record) error {
	return m.Called(ctx, r).Error(0)
}

func (m *RepositoryMock) CountPassed(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}
