package models

import "time"

type ParkingSpace struct {
	ID          int64     `yaml:"id" json:"id"`
	OwnerID     int64     `yaml:"owner_id" json:"owner_id"`
	Name        string    `yaml:"name" json:"name"`
	Address     string    `yaml:"address" json:"address"`
	Latitude    float64   `yaml:"latitude" json:"latitude"`
	Longitude   float64   `yaml:"longitude" json:"longitude"`
	Geohash     string    `yaml:"-" json:"geohash"`
	HourlyRate  float64   `yaml:"hourly_rate" json:"hourly_rate"`
	TotalSpots  int64     `yaml:"total_spots" json:"total_spots"`
	Description string    `yaml:"description" json:"description"`
	OwnerPhone  string    `yaml:"owner_phone" json:"owner_phone,omitempty"`
	OwnerEmail  string    `yaml:"owner_email" json:"owner_email,omitempty"`
	IsActive    bool      `yaml:"is_active" json:"is_active"`
	CreatedAt   time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updated_at"`
}

// Occupancy is a point-in-time view of how full a space is.
type Occupancy struct {
	SpaceID    int64 `json:"space_id"`
	Occupied   int64 `json:"occupied"`
	TotalSpots int64 `json:"total_spots"`
	Available  int64 `json:"available"`
}

// NearbySpace pairs a space with its distance from a search point.
type NearbySpace struct {
	ParkingSpace
	DistanceKm float64 `json:"distance_km"`
}
