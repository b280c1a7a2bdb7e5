package models

import (
	"database/sql"
	"time"
)

type ParkingRequest struct {
	ID          int64           `json:"id"`
	SpaceID     int64           `json:"space_id"`
	SpaceName   string          `json:"space_name"`
	UserID      int64           `json:"user_id"`
	Status      string          `json:"status"` // pending, active, end_requested, ended, cancelled
	StartTime   sql.NullTime    `json:"start_time"`
	EndTime     sql.NullTime    `json:"end_time"`
	TotalAmount sql.NullFloat64 `json:"total_amount"`
	IsPaid      bool            `json:"is_paid"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Version     int64           `json:"version"`
}

// Open reports whether the request still holds or may come to hold a spot.
func (r *ParkingRequest) Open() bool {
	switch r.Status {
	case StatusPending, StatusActive, StatusEndRequested:
		return true
	}
	return false
}
