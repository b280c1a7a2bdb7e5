package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"parkhive/internal/geo"
	"parkhive/internal/models"
)

const spaceColumns = `id, owner_id, name, address, latitude, longitude, geohash,
	                 hourly_rate, total_spots, description, owner_phone,
					 owner_email, is_active, created_at, updated_at`

func (db *DB) CreateSpace(ctx context.Context, space *models.ParkingSpace) error {
	space.Geohash = geo.Cell(space.Latitude, space.Longitude)

	query := `INSERT INTO parking_spaces (
				owner_id, name, address, latitude, longitude, geohash,
				hourly_rate, total_spots, description, owner_phone,
				owner_email, is_active, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		space.OwnerID,
		space.Name,
		space.Address,
		space.Latitude,
		space.Longitude,
		space.Geohash,
		space.HourlyRate,
		space.TotalSpots,
		space.Description,
		space.OwnerPhone,
		space.OwnerEmail,
		true,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create parking space: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	space.ID = id
	space.IsActive = true
	space.CreatedAt = now
	space.UpdatedAt = now

	return nil
}

func (db *DB) GetSpace(ctx context.Context, id int64) (*models.ParkingSpace, error) {
	query := `SELECT ` + spaceColumns + ` FROM parking_spaces WHERE id = ?`
	return db.querySpace(ctx, query, id)
}

func (db *DB) GetSpacesByOwner(ctx context.Context, ownerID int64) ([]*models.ParkingSpace, error) {
	query := `SELECT ` + spaceColumns + ` FROM parking_spaces
              WHERE owner_id = ? ORDER BY created_at DESC`
	return db.querySpaces(ctx, query, ownerID)
}

func (db *DB) GetActiveSpaces(ctx context.Context) ([]*models.ParkingSpace, error) {
	query := `SELECT ` + spaceColumns + ` FROM parking_spaces
              WHERE is_active = 1 ORDER BY created_at DESC`
	return db.querySpaces(ctx, query)
}

// GetSpacesByCells returns active spaces whose geohash falls in any of
// the given cells. Cells are prefixes: a coarser cell (shorter hash)
// matches every indexed space inside it. Callers refine the candidates
// by exact distance.
func (db *DB) GetSpacesByCells(ctx context.Context, cells []string) ([]*models.ParkingSpace, error) {
	if len(cells) == 0 {
		return nil, nil
	}

	conditions := strings.TrimSuffix(strings.Repeat("geohash LIKE ? OR ", len(cells)), " OR ")
	query := `SELECT ` + spaceColumns + ` FROM parking_spaces
              WHERE is_active = 1 AND (` + conditions + `)`

	args := make([]interface{}, len(cells))
	for i, c := range cells {
		args[i] = c + "%"
	}
	return db.querySpaces(ctx, query, args...)
}

func (db *DB) DeactivateSpace(ctx context.Context, id int64) error {
	query := `UPDATE parking_spaces SET is_active = 0, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate space: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// SyncSpaces upserts seed spaces loaded from configuration, matching
// on ID. Used once at startup; runtime registration goes through
// CreateSpace.
func (db *DB) SyncSpaces(ctx context.Context, spaces []models.ParkingSpace) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `INSERT INTO parking_spaces (
				id, owner_id, name, address, latitude, longitude, geohash,
				hourly_rate, total_spots, description, owner_phone,
				owner_email, is_active, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT(id) DO UPDATE SET
                name = excluded.name,
                address = excluded.address,
                latitude = excluded.latitude,
                longitude = excluded.longitude,
                geohash = excluded.geohash,
                hourly_rate = excluded.hourly_rate,
                total_spots = excluded.total_spots,
                description = excluded.description,
                is_active = excluded.is_active,
                updated_at = excluded.updated_at`

	now := time.Now()
	for _, space := range spaces {
		cell := geo.Cell(space.Latitude, space.Longitude)
		_, err := tx.ExecContext(ctx, query,
			space.ID,
			space.OwnerID,
			space.Name,
			space.Address,
			space.Latitude,
			space.Longitude,
			cell,
			space.HourlyRate,
			space.TotalSpots,
			space.Description,
			space.OwnerPhone,
			space.OwnerEmail,
			space.IsActive,
			now,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to sync space %d: %w", space.ID, err)
		}
	}

	return tx.Commit()
}

// GetOccupancy counts open requests against the space's capacity.
func (db *DB) GetOccupancy(ctx context.Context, spaceID int64) (*models.Occupancy, error) {
	space, err := db.GetSpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}

	occupied, err := db.CountOpenRequests(ctx, spaceID)
	if err != nil {
		return nil, err
	}

	available := space.TotalSpots - occupied
	if available < 0 {
		available = 0
	}

	return &models.Occupancy{
		SpaceID:    spaceID,
		Occupied:   occupied,
		TotalSpots: space.TotalSpots,
		Available:  available,
	}, nil
}

func (db *DB) querySpace(ctx context.Context, query string, args ...interface{}) (*models.ParkingSpace, error) {
	var s models.ParkingSpace
	err := db.QueryRowContext(ctx, query, args...).Scan(
		&s.ID, &s.OwnerID, &s.Name, &s.Address, &s.Latitude, &s.Longitude,
		&s.Geohash, &s.HourlyRate, &s.TotalSpots, &s.Description,
		&s.OwnerPhone, &s.OwnerEmail, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parking space: %w", err)
	}
	return &s, nil
}

func (db *DB) querySpaces(ctx context.Context, query string, args ...interface{}) ([]*models.ParkingSpace, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query parking spaces: %w", err)
	}
	defer rows.Close()

	var spaces []*models.ParkingSpace
	for rows.Next() {
		s := &models.ParkingSpace{}
		err := rows.Scan(
			&s.ID, &s.OwnerID, &s.Name, &s.Address, &s.Latitude, &s.Longitude,
			&s.Geohash, &s.HourlyRate, &s.TotalSpots, &s.Description,
			&s.OwnerPhone, &s.OwnerEmail, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan parking space: %w", err)
		}
		spaces = append(spaces, s)
	}
	return spaces, rows.Err()
}
