package database

import "errors"

var (
	// ErrNotFound is returned when a listing lookup matches nothing
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned when a listing was modified after it was read
	ErrVersionConflict = errors.New("listing was modified concurrently")

	// ErrDuplicateEmail is returned when an account email is already registered
	ErrDuplicateEmail = errors.New("email already registered")
)

// ErrListingExists is returned when an owner already has a listing of that type
var ErrListingExists = errors.New("owner already has a listing")
