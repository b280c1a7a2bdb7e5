package database

import (
	"context"
	"testing"

	"parkhive/internal/geo"
	"parkhive/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSpace(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	space := &models.ParkingSpace{
		OwnerID:    1,
		Name:       "Garden City",
		Address:    "Yusuf Lule Rd",
		Latitude:   0.3326,
		Longitude:  32.5927,
		HourlyRate: 2000,
		TotalSpots: 50,
	}
	err := db.CreateSpace(ctx, space)
	require.NoError(t, err)
	assert.NotZero(t, space.ID)
	assert.True(t, space.IsActive)
	assert.Equal(t, geo.Cell(space.Latitude, space.Longitude), space.Geohash)

	got, err := db.GetSpace(ctx, space.ID)
	require.NoError(t, err)
	assert.Equal(t, "Garden City", got.Name)
	assert.Equal(t, float64(2000), got.HourlyRate)
	assert.Equal(t, space.Geohash, got.Geohash)
}

func TestGetSpacesByCells(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	near := &models.ParkingSpace{OwnerID: 1, Name: "Near", Latitude: 0.3136, Longitude: 32.5811, HourlyRate: 1000, TotalSpots: 5}
	far := &models.ParkingSpace{OwnerID: 1, Name: "Far", Latitude: 51.5074, Longitude: -0.1278, HourlyRate: 1000, TotalSpots: 5}
	require.NoError(t, db.CreateSpace(ctx, near))
	require.NoError(t, db.CreateSpace(ctx, far))

	cells := geo.SearchCells(0.3136, 32.5811, 2)
	spaces, err := db.GetSpacesByCells(ctx, cells)
	require.NoError(t, err)
	require.Len(t, spaces, 1)
	assert.Equal(t, "Near", spaces[0].Name)

	// Empty cell list short-circuits
	spaces, err = db.GetSpacesByCells(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, spaces)
}

func TestGetSpacesByCells_CoarseCellsMatchByPrefix(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	// 15.6 km north of the query point: outside precision-5 cell
	// coverage, inside the coarser cells a 25 km search asks for.
	distant := &models.ParkingSpace{OwnerID: 1, Name: "Distant", Latitude: 0.4539, Longitude: 32.5811, HourlyRate: 1000, TotalSpots: 5}
	require.NoError(t, db.CreateSpace(ctx, distant))

	narrow := geo.SearchCells(0.3136, 32.5811, 2)
	spaces, err := db.GetSpacesByCells(ctx, narrow)
	require.NoError(t, err)
	assert.Empty(t, spaces)

	wide := geo.SearchCells(0.3136, 32.5811, 25)
	spaces, err = db.GetSpacesByCells(ctx, wide)
	require.NoError(t, err)
	require.Len(t, spaces, 1)
	assert.Equal(t, "Distant", spaces[0].Name)
}

func TestDeactivateSpace(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	space := createTestSpace(t, db, 1, 1000)

	err := db.DeactivateSpace(ctx, space.ID)
	require.NoError(t, err)

	active, err := db.GetActiveSpaces(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	// Deactivated spaces drop out of cell lookups too
	cells := geo.SearchCells(space.Latitude, space.Longitude, 2)
	spaces, err := db.GetSpacesByCells(ctx, cells)
	require.NoError(t, err)
	assert.Empty(t, spaces)

	err = db.DeactivateSpace(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSyncSpaces(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	seed := []models.ParkingSpace{
		{ID: 1, OwnerID: 1, Name: "Lot A", Latitude: 0.31, Longitude: 32.58, HourlyRate: 1000, TotalSpots: 10, IsActive: true},
		{ID: 2, OwnerID: 1, Name: "Lot B", Latitude: 0.32, Longitude: 32.59, HourlyRate: 1500, TotalSpots: 20, IsActive: true},
	}
	require.NoError(t, db.SyncSpaces(ctx, seed))

	spaces, err := db.GetActiveSpaces(ctx)
	require.NoError(t, err)
	require.Len(t, spaces, 2)

	// Re-sync updates in place instead of duplicating
	seed[0].HourlyRate = 1200
	seed[1].IsActive = false
	require.NoError(t, db.SyncSpaces(ctx, seed))

	spaces, err = db.GetActiveSpaces(ctx)
	require.NoError(t, err)
	require.Len(t, spaces, 1)
	assert.Equal(t, float64(1200), spaces[0].HourlyRate)
}

func TestGetOccupancy(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	space := createTestSpace(t, db, 1, 1000) // TotalSpots: 2

	occ, err := db.GetOccupancy(ctx, space.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), occ.Occupied)
	assert.Equal(t, int64(2), occ.Available)

	require.NoError(t, db.CreateRequest(ctx, &models.ParkingRequest{SpaceID: space.ID, UserID: 2}))
	require.NoError(t, db.CreateRequest(ctx, &models.ParkingRequest{SpaceID: space.ID, UserID: 3}))
	require.NoError(t, db.CreateRequest(ctx, &models.ParkingRequest{SpaceID: space.ID, UserID: 4}))

	occ, err = db.GetOccupancy(ctx, space.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), occ.Occupied)
	assert.Equal(t, int64(2), occ.TotalSpots)
	// Overbooked space reports zero, not negative
	assert.Equal(t, int64(0), occ.Available)

	_, err = db.GetOccupancy(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
