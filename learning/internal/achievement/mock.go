package achievement

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/XaviFP/manabi/common/pagination"
)

type RepositoryMock struct {
	mock.Mock
}

func (m *RepositoryMock) AppendEarned(ctx context.Context, b EarnedBadge) (bool, error) {
	args := m.Called(ctx, b)
	return args.Bool(0), args.Error(1)
}

func (m *RepositoryMock) EarnedBadgeIDs(ctx context.Context, userID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *RepositoryMock) ListEarned(ctx context.Context, userID uuid.UUID, p pagination.Pagination) (EarnedBadgeConnection, error) {
	args := m.Called(ctx, userID, p)
	return args.Get(0).(EarnedBadgeConnection), args.Error(1)
}
