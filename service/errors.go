package service

import "errors"

var (
	// ErrMissingID is returned when an update or delete names no cargo item.
	ErrMissingID = errors.New("missing cargo id")

	// ErrCargoNotFound matches standard 404 behavior
	ErrCargoNotFound = errors.New("cargo item not found")
)
