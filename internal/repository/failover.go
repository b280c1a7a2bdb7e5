package repository

import (
	"context"
	"sync/atomic"
	"time"

	"parkhive/internal/domain"
	"parkhive/internal/models"

	"github.com/rs/zerolog"
)

type FailoverCacheRepository struct {
	primary   domain.CacheRepository
	fallback  domain.CacheRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverCacheRepository(primary, fallback domain.CacheRepository, logger *zerolog.Logger) *FailoverCacheRepository {
	return &FailoverCacheRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverCacheRepository) GetOccupancy(ctx context.Context, spaceID int64) (*models.Occupancy, error) {
	if !r.isDown.Load() {
		occupancy, err := r.primary.GetOccupancy(ctx, spaceID)
		if err == nil {
			return occupancy, nil
		}
		r.logger.Error().Err(err).Msg("Primary cache repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		occupancy, err := r.primary.GetOccupancy(ctx, spaceID)
		if err == nil {
			r.isDown.Store(false)
			return occupancy, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetOccupancy(ctx, spaceID)
}

func (r *FailoverCacheRepository) SetOccupancy(ctx context.Context, occupancy *models.Occupancy, ttl time.Duration) error {
	if !r.isDown.Load() {
		err := r.primary.SetOccupancy(ctx, occupancy, ttl)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("Primary cache repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.SetOccupancy(ctx, occupancy, ttl)
}

func (r *FailoverCacheRepository) InvalidateOccupancy(ctx context.Context, spaceID int64) error {
	if !r.isDown.Load() {
		err := r.primary.InvalidateOccupancy(ctx, spaceID)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("Primary cache repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.InvalidateOccupancy(ctx, spaceID)
}

func (r *FailoverCacheRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.logger.Error().Err(err).Msg("Primary cache repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}
