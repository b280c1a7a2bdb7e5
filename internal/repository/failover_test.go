package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"parkhive/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockCacheRepo struct {
	mock.Mock
}

func (m *mockCacheRepo) GetOccupancy(ctx context.Context, spaceID int64) (*models.Occupancy, error) {
	args := m.Called(ctx, spaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Occupancy), args.Error(1)
}

func (m *mockCacheRepo) SetOccupancy(ctx context.Context, occupancy *models.Occupancy, ttl time.Duration) error {
	args := m.Called(ctx, occupancy, ttl)
	return args.Error(0)
}

func (m *mockCacheRepo) InvalidateOccupancy(ctx context.Context, spaceID int64) error {
	args := m.Called(ctx, spaceID)
	return args.Error(0)
}

func (m *mockCacheRepo) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, userID, limit, window)
	return args.Bool(0), args.Error(1)
}

func TestFailoverCacheRepository(t *testing.T) {
	primary := new(mockCacheRepo)
	fallback := new(mockCacheRepo)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverCacheRepository(primary, fallback, &logger)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		occupancy := &models.Occupancy{SpaceID: 1}
		primary.On("GetOccupancy", ctx, int64(1)).Return(occupancy, nil).Once()

		got, err := repo.GetOccupancy(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, occupancy, got)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		occupancy := &models.Occupancy{SpaceID: 2}
		primary.On("GetOccupancy", ctx, int64(2)).Return(nil, errors.New("fail")).Once()
		fallback.On("GetOccupancy", ctx, int64(2)).Return(occupancy, nil).Once()

		got, err := repo.GetOccupancy(ctx, 2)
		assert.NoError(t, err)
		assert.Equal(t, occupancy, got)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now().Add(-2 * time.Minute)

		occupancy := &models.Occupancy{SpaceID: 3}
		primary.On("GetOccupancy", ctx, int64(3)).Return(occupancy, nil).Once()

		got, err := repo.GetOccupancy(ctx, 3)
		assert.NoError(t, err)
		assert.Equal(t, occupancy, got)
		assert.False(t, repo.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now().Add(-2 * time.Minute)

		primary.On("GetOccupancy", ctx, int64(33)).Return(nil, errors.New("still fail")).Once()
		fallback.On("GetOccupancy", ctx, int64(33)).Return(nil, nil).Once()

		_, err := repo.GetOccupancy(ctx, 33)
		assert.NoError(t, err)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SetOccupancySuccess", func(t *testing.T) {
		repo.isDown.Store(false)
		occupancy := &models.Occupancy{SpaceID: 77}
		primary.On("SetOccupancy", ctx, occupancy, time.Minute).Return(nil).Once()

		err := repo.SetOccupancy(ctx, occupancy, time.Minute)
		assert.NoError(t, err)
		primary.AssertExpectations(t)
	})

	t.Run("InvalidateOccupancySuccess", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("InvalidateOccupancy", ctx, int64(88)).Return(nil).Once()

		err := repo.InvalidateOccupancy(ctx, 88)
		assert.NoError(t, err)
		primary.AssertExpectations(t)
	})

	t.Run("CheckRateLimitSuccess", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("CheckRateLimit", ctx, int64(99), 10, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, 99, 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		primary.AssertExpectations(t)
	})

	t.Run("SetOccupancyFailover", func(t *testing.T) {
		repo.isDown.Store(false)
		occupancy := &models.Occupancy{SpaceID: 4}
		primary.On("SetOccupancy", ctx, occupancy, time.Minute).Return(errors.New("fail")).Once()
		fallback.On("SetOccupancy", ctx, occupancy, time.Minute).Return(nil).Once()

		err := repo.SetOccupancy(ctx, occupancy, time.Minute)
		assert.NoError(t, err)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("InvalidateOccupancyFailover", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("InvalidateOccupancy", ctx, int64(5)).Return(errors.New("fail")).Once()
		fallback.On("InvalidateOccupancy", ctx, int64(5)).Return(nil).Once()

		err := repo.InvalidateOccupancy(ctx, 5)
		assert.NoError(t, err)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("CheckRateLimitFailover", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("CheckRateLimit", ctx, int64(6), 10, time.Minute).Return(false, errors.New("fail")).Once()
		fallback.On("CheckRateLimit", ctx, int64(6), 10, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, 6, 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SetOccupancyAlreadyDown", func(t *testing.T) {
		repo.isDown.Store(true)
		occupancy := &models.Occupancy{SpaceID: 44}
		fallback.On("SetOccupancy", ctx, occupancy, time.Minute).Return(nil).Once()

		err := repo.SetOccupancy(ctx, occupancy, time.Minute)
		assert.NoError(t, err)
		fallback.AssertExpectations(t)
	})

	t.Run("CheckRateLimitAlreadyDown", func(t *testing.T) {
		repo.isDown.Store(true)
		fallback.On("CheckRateLimit", ctx, int64(66), 10, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, 66, 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		fallback.AssertExpectations(t)
	})
}
