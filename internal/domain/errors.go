package domain

import "errors"

// Validation failures. Handlers map each to a 400 with the endpoint's
// wire message; the order they are checked in is part of the contract.
var (
	ErrInvalidDate    = errors.New("invalid date format")
	ErrRangeOrder     = errors.New("from date after to date")
	ErrInvalidPeople  = errors.New("invalid number of people")
	ErrInvalidPage    = errors.New("invalid page number")
	ErrInvalidLimit   = errors.New("invalid limit")
	ErrInvalidHouseID = errors.New("invalid house id")
	ErrNoNames        = errors.New("no occupant names")
)

// Booking outcomes. A missing house and a date conflict deliberately
// collapse into ErrHouseUnavailable so callers cannot probe for house
// existence through the booking endpoint.
var (
	ErrHouseUnavailable = errors.New("house not available")
	ErrCapacityExceeded = errors.New("house capacity exceeded")
)

// Identity failures
var (
	ErrUserExists      = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrBadCredentials  = errors.New("invalid credentials")
	ErrUnauthenticated = errors.New("not authenticated")
)
