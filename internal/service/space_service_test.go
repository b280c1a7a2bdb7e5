package service

import (
	"context"
	"io"
	"testing"
	"time"

	"parkhive/internal/billing"
	"parkhive/internal/geo"
	"parkhive/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSpaceService_RegisterSpace(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	t.Run("Success", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewSpaceService(repo, nil, 0, 0, &logger)

		space := &models.ParkingSpace{OwnerID: 1, Name: "Lot A", HourlyRate: 1000}
		repo.On("CreateSpace", ctx, space).Return(nil).Once()

		err := svc.RegisterSpace(ctx, space)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), space.TotalSpots)
		repo.AssertExpectations(t)
	})

	t.Run("InvalidRate", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewSpaceService(repo, nil, 0, 0, &logger)

		err := svc.RegisterSpace(ctx, &models.ParkingSpace{OwnerID: 1, Name: "Lot A"})
		assert.ErrorIs(t, err, billing.ErrInvalidRate)
		repo.AssertNotCalled(t, "CreateSpace")
	})
}

func TestSpaceService_FindNearby(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	// Search point in central Kampala
	lat, lon := 0.3136, 32.5811

	near := &models.ParkingSpace{ID: 1, Name: "Near", Latitude: 0.3140, Longitude: 32.5815, IsActive: true}
	farther := &models.ParkingSpace{ID: 2, Name: "Farther", Latitude: 0.3300, Longitude: 32.6000, IsActive: true}
	outside := &models.ParkingSpace{ID: 3, Name: "Outside", Latitude: 0.0500, Longitude: 32.4400, IsActive: true}

	repo := new(mockRepo)
	svc := NewSpaceService(repo, nil, 5, 50, &logger)

	repo.On("GetSpacesByCells", ctx, geo.SearchCells(lat, lon, 5)).
		Return([]*models.ParkingSpace{farther, near, outside}, nil).Once()

	result, err := svc.FindNearby(ctx, lat, lon, 5, 10)
	require.NoError(t, err)
	require.Len(t, result, 2)

	// Sorted closest first, out-of-radius candidates dropped
	assert.Equal(t, "Near", result[0].Name)
	assert.Equal(t, "Farther", result[1].Name)
	assert.Less(t, result[0].DistanceKm, result[1].DistanceKm)
	repo.AssertExpectations(t)
}

func TestSpaceService_FindNearby_ConfiguredDefaultRadius(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	lat, lon := 0.3136, 32.5811

	// ~15.6 km north: inside a 20 km default radius, outside 5 km
	distant := &models.ParkingSpace{ID: 4, Name: "Distant", Latitude: 0.4539, Longitude: 32.5811, IsActive: true}

	repo := new(mockRepo)
	svc := NewSpaceService(repo, nil, 20, 50, &logger)

	repo.On("GetSpacesByCells", ctx, geo.SearchCells(lat, lon, 20)).
		Return([]*models.ParkingSpace{distant}, nil).Once()

	result, err := svc.FindNearby(ctx, lat, lon, 0, 10)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Distant", result[0].Name)
	repo.AssertExpectations(t)
}

func TestSpaceService_FindNearby_Limit(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	lat, lon := 0.3136, 32.5811
	spaces := []*models.ParkingSpace{
		{ID: 1, Latitude: 0.3137, Longitude: 32.5812, IsActive: true},
		{ID: 2, Latitude: 0.3138, Longitude: 32.5813, IsActive: true},
		{ID: 3, Latitude: 0.3139, Longitude: 32.5814, IsActive: true},
	}

	repo := new(mockRepo)
	svc := NewSpaceService(repo, nil, 5, 50, &logger)
	repo.On("GetSpacesByCells", ctx, mock.Anything).Return(spaces, nil).Once()

	result, err := svc.FindNearby(ctx, lat, lon, 5, 2)
	require.NoError(t, err)
	assert.Len(t, result, 2)
}

func TestSpaceService_GetOccupancy(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	occupancy := &models.Occupancy{SpaceID: 5, Occupied: 3, TotalSpots: 10, Available: 7}

	t.Run("CacheHit", func(t *testing.T) {
		repo := new(mockRepo)
		cache := new(mockCache)
		svc := NewSpaceService(repo, cache, 5, 50, &logger)

		cache.On("GetOccupancy", ctx, int64(5)).Return(occupancy, nil).Once()

		got, err := svc.GetOccupancy(ctx, 5)
		assert.NoError(t, err)
		assert.Equal(t, occupancy, got)
		repo.AssertNotCalled(t, "GetOccupancy")
		cache.AssertExpectations(t)
	})

	t.Run("CacheMiss", func(t *testing.T) {
		repo := new(mockRepo)
		cache := new(mockCache)
		svc := NewSpaceService(repo, cache, 5, 50, &logger)

		cache.On("GetOccupancy", ctx, int64(5)).Return(nil, nil).Once()
		repo.On("GetOccupancy", ctx, int64(5)).Return(occupancy, nil).Once()
		cache.On("SetOccupancy", ctx, occupancy, models.OccupancyCacheTTL*time.Second).Return(nil).Once()

		got, err := svc.GetOccupancy(ctx, 5)
		assert.NoError(t, err)
		assert.Equal(t, occupancy, got)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("NoCache", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewSpaceService(repo, nil, 5, 50, &logger)

		repo.On("GetOccupancy", ctx, int64(5)).Return(occupancy, nil).Once()

		got, err := svc.GetOccupancy(ctx, 5)
		assert.NoError(t, err)
		assert.Equal(t, occupancy, got)
		repo.AssertExpectations(t)
	})
}

func TestSpaceService_DeactivateSpace(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	space := &models.ParkingSpace{ID: 5, OwnerID: 1, IsActive: true}

	t.Run("Success", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewSpaceService(repo, nil, 5, 50, &logger)

		repo.On("GetSpace", ctx, int64(5)).Return(space, nil).Once()
		repo.On("DeactivateSpace", ctx, int64(5)).Return(nil).Once()

		err := svc.DeactivateSpace(ctx, 5, 1)
		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("NotOwner", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewSpaceService(repo, nil, 5, 50, &logger)

		repo.On("GetSpace", ctx, int64(5)).Return(space, nil).Once()

		err := svc.DeactivateSpace(ctx, 5, 99)
		assert.ErrorIs(t, err, ErrNotOwner)
		repo.AssertNotCalled(t, "DeactivateSpace")
	})
}
