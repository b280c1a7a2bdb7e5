package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"parkhive/internal/models"
)

const requestColumns = `r.id, r.space_id, s.name, r.user_id, r.status,
	                 r.start_time, r.end_time, r.total_amount, r.is_paid,
					 r.created_at, r.updated_at, r.version`

// CreateRequest inserts a pending request, enforcing inside the
// transaction that the user has no other open request on the space.
func (db *DB) CreateRequest(ctx context.Context, request *models.ParkingRequest) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var openCount int
	queryCount := `SELECT COUNT(*) FROM parking_requests
                   WHERE space_id = ? AND user_id = ? AND status IN (?, ?, ?)`
	err = tx.QueryRowContext(ctx, queryCount,
		request.SpaceID, request.UserID,
		models.StatusPending, models.StatusActive, models.StatusEndRequested,
	).Scan(&openCount)
	if err != nil {
		return fmt.Errorf("failed to check open requests in tx: %w", err)
	}
	if openCount > 0 {
		return ErrDuplicateActiveRequest
	}

	queryInsert := `INSERT INTO parking_requests (
				space_id, user_id, status, is_paid, created_at, updated_at, version
			) VALUES (?, ?, ?, 0, ?, ?, 1)`
	now := time.Now()
	result, err := tx.ExecContext(ctx, queryInsert,
		request.SpaceID,
		request.UserID,
		models.StatusPending,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert request in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}
	request.ID = id
	request.Status = models.StatusPending
	request.CreatedAt = now
	request.UpdatedAt = now
	request.Version = 1

	return tx.Commit()
}

func (db *DB) GetRequest(ctx context.Context, id int64) (*models.ParkingRequest, error) {
	query := `SELECT ` + requestColumns + `
              FROM parking_requests r
              JOIN parking_spaces s ON s.id = r.space_id
              WHERE r.id = ?`

	var r models.ParkingRequest
	err := db.QueryRowContext(ctx, query, id).Scan(
		&r.ID, &r.SpaceID, &r.SpaceName, &r.UserID, &r.Status,
		&r.StartTime, &r.EndTime, &r.TotalAmount, &r.IsPaid,
		&r.CreatedAt, &r.UpdatedAt, &r.Version,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return &r, nil
}

// UpdateRequestStatusWithVersion applies a bare status transition
// (deny, end request) guarded by the optimistic version column.
func (db *DB) UpdateRequestStatusWithVersion(ctx context.Context, id, fromVersion int64, status string) error {
	query := `UPDATE parking_requests
              SET status = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// StartRequestWithVersion moves a request to active and stamps the
// session start.
func (db *DB) StartRequestWithVersion(ctx context.Context, id, fromVersion int64, startTime time.Time) error {
	query := `UPDATE parking_requests
              SET status = ?, start_time = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, models.StatusActive, startTime, time.Now(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to start request: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// EndRequestWithVersion moves a request to ended with the settled
// amount.
func (db *DB) EndRequestWithVersion(ctx context.Context, id, fromVersion int64, endTime time.Time, totalAmount float64) error {
	query := `UPDATE parking_requests
              SET status = ?, end_time = ?, total_amount = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, models.StatusEnded, endTime, totalAmount, time.Now(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to end request: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func (db *DB) GetUserRequests(ctx context.Context, userID int64) ([]*models.ParkingRequest, error) {
	query := `SELECT ` + requestColumns + `
              FROM parking_requests r
              JOIN parking_spaces s ON s.id = r.space_id
              WHERE r.user_id = ? ORDER BY r.created_at DESC`
	return db.queryRequests(ctx, query, userID)
}

func (db *DB) GetSpaceRequests(ctx context.Context, spaceID int64) ([]*models.ParkingRequest, error) {
	query := `SELECT ` + requestColumns + `
              FROM parking_requests r
              JOIN parking_spaces s ON s.id = r.space_id
              WHERE r.space_id = ? ORDER BY r.created_at DESC`
	return db.queryRequests(ctx, query, spaceID)
}

// GetOwnerRequests returns all requests against any space owned by the
// given user, newest first.
func (db *DB) GetOwnerRequests(ctx context.Context, ownerID int64) ([]*models.ParkingRequest, error) {
	query := `SELECT ` + requestColumns + `
              FROM parking_requests r
              JOIN parking_spaces s ON s.id = r.space_id
              WHERE s.owner_id = ? ORDER BY r.created_at DESC`
	return db.queryRequests(ctx, query, ownerID)
}

func (db *DB) GetRequestsByDateRange(ctx context.Context, ownerID int64, start, end time.Time) ([]*models.ParkingRequest, error) {
	query := `SELECT ` + requestColumns + `
              FROM parking_requests r
              JOIN parking_spaces s ON s.id = r.space_id
              WHERE s.owner_id = ? AND date(r.created_at) >= ? AND date(r.created_at) <= ?
              ORDER BY r.created_at ASC`
	return db.queryRequests(ctx, query, ownerID,
		start.Format("2006-01-02"), end.Format("2006-01-02"))
}

func (db *DB) CountOpenRequests(ctx context.Context, spaceID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM parking_requests
              WHERE space_id = ? AND status IN (?, ?, ?)`
	var count int64
	err := db.QueryRowContext(ctx, query, spaceID,
		models.StatusPending, models.StatusActive, models.StatusEndRequested,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count open requests: %w", err)
	}
	return count, nil
}

// EarningsBySpace returns the sum of paid amounts per space for one
// owner.
func (db *DB) EarningsBySpace(ctx context.Context, ownerID int64) (map[int64]float64, error) {
	query := `SELECT r.space_id, COALESCE(SUM(r.total_amount), 0)
              FROM parking_requests r
              JOIN parking_spaces s ON s.id = r.space_id
              WHERE s.owner_id = ? AND r.is_paid = 1
              GROUP BY r.space_id`
	rows, err := db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query earnings: %w", err)
	}
	defer rows.Close()

	earnings := make(map[int64]float64)
	for rows.Next() {
		var spaceID int64
		var total float64
		if err := rows.Scan(&spaceID, &total); err != nil {
			return nil, fmt.Errorf("failed to scan earnings: %w", err)
		}
		earnings[spaceID] = total
	}
	return earnings, rows.Err()
}

func (db *DB) queryRequests(ctx context.Context, query string, args ...interface{}) ([]*models.ParkingRequest, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.ParkingRequest
	for rows.Next() {
		r := &models.ParkingRequest{}
		err := rows.Scan(
			&r.ID, &r.SpaceID, &r.SpaceName, &r.UserID, &r.Status,
			&r.StartTime, &r.EndTime, &r.TotalAmount, &r.IsPaid,
			&r.CreatedAt, &r.UpdatedAt, &r.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}
