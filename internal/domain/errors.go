package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrUnavailable      = errors.New("upstream unavailable")
	ErrEmptyResult      = errors.New("upstream returned no reviews")
	ErrInvalidTimestamp = errors.New("invalid submission timestamp")
)
