package database

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDateClosed is returned when the requested day is a blackout date.
	ErrDateClosed = errors.New("date is closed")

	// ErrDateFull is returned when the day has reached the daily cap.
	ErrDateFull = errors.New("date is full")

	// ErrBlackoutExists is returned when the day is already a blackout date.
	ErrBlackoutExists = errors.New("blackout date already exists")

	// ErrServiceTypeExists is returned on a duplicate service type name.
	ErrServiceTypeExists = errors.New("service type already exists")
)
