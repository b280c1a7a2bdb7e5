package repository

import (
	"context"
	"sync"
	"time"

	"parkhive/internal/models"
)

type MemoryCacheRepository struct {
	occupancies sync.Map
	rateLimits  sync.Map
}

func NewMemoryCacheRepository() *MemoryCacheRepository {
	return &MemoryCacheRepository{}
}

type occupancyEntry struct {
	occupancy *models.Occupancy
	expiresAt time.Time
}

func (r *MemoryCacheRepository) GetOccupancy(ctx context.Context, spaceID int64) (*models.Occupancy, error) {
	val, ok := r.occupancies.Load(spaceID)
	if !ok {
		return nil, nil
	}
	entry := val.(*occupancyEntry)
	if time.Now().After(entry.expiresAt) {
		r.occupancies.Delete(spaceID)
		return nil, nil
	}
	return entry.occupancy, nil
}

func (r *MemoryCacheRepository) SetOccupancy(ctx context.Context, occupancy *models.Occupancy, ttl time.Duration) error {
	r.occupancies.Store(occupancy.SpaceID, &occupancyEntry{
		occupancy: occupancy,
		expiresAt: time.Now().Add(ttl),
	})
	return nil
}

func (r *MemoryCacheRepository) InvalidateOccupancy(ctx context.Context, spaceID int64) error {
	r.occupancies.Delete(spaceID)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryCacheRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(userID)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(userID, entry)
	return entry.count <= limit, nil
}
