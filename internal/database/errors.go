package database

import "errors"

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConcurrentModification is returned when a version-guarded
	// update matched no rows: someone else transitioned the record
	// first.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrDuplicateActiveRequest is returned when a user already holds
	// an open request on the same space.
	ErrDuplicateActiveRequest = errors.New("user already has an open request for this space")

	// ErrInsufficientFunds is returned when a debit would take a
	// wallet balance below zero.
	ErrInsufficientFunds = errors.New("insufficient wallet funds")

	// ErrAlreadyPaid is returned when a payment targets a request that
	// is not an unpaid ended request.
	ErrAlreadyPaid = errors.New("request is not awaiting payment")
)
