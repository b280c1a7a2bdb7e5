package billing

import (
	"errors"
	"math"
	"time"
)

var (
	ErrInvalidInterval = errors.New("billing: end time before start time")
	ErrInvalidRate     = errors.New("billing: hourly rate must be positive")
)

// Bill is the outcome of settling one parking session.
type Bill struct {
	DurationHours int     `json:"duration_hours"`
	Amount        float64 `json:"amount"`
}

// Compute settles a session: elapsed time rounded up to whole hours,
// never less than one billed hour, multiplied by the space's rate.
func Compute(start, end time.Time, hourlyRate float64) (Bill, error) {
	if end.Before(start) {
		return Bill{}, ErrInvalidInterval
	}
	if hourlyRate <= 0 {
		return Bill{}, ErrInvalidRate
	}

	hours := int(math.Ceil(end.Sub(start).Hours()))
	if hours < 1 {
		hours = 1
	}

	return Bill{
		DurationHours: hours,
		Amount:        float64(hours) * hourlyRate,
	}, nil
}
