package service

import "errors"

var (
	ErrSelfRequest       = errors.New("cannot request own parking space")
	ErrSpaceInactive     = errors.New("parking space is not active")
	ErrNotOwner          = errors.New("actor does not own the parking space")
	ErrNotRequester      = errors.New("actor is neither the requester nor the space owner")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidAmount     = errors.New("amount must be positive")
)
