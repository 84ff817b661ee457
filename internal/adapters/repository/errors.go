package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound       = errors.New("athlete not found")
	ErrInvalidProfile = errors.New("invalid profile")
	ErrUnknownDriver  = errors.New("unknown store driver")
)
