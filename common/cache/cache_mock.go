package cache

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *CacheMock) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)

	return args.String(0), args.Error(1)
}

func (m *CacheMock) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}
