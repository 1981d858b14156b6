package repository

import "github.com/pkg/errors"

var (
	// ErrRecordNotFound is returned when a referenced record or match does not exist.
	ErrRecordNotFound = errors.New("record not found")
	// ErrConflictingMatch means one of the records is already part of a match.
	ErrConflictingMatch = errors.New("a match already exists for one of these records")
	// ErrMatchNotPending is returned by approve and reject when the match is
	// missing or no longer pending.
	ErrMatchNotPending = errors.New("match not found or already resolved")
	// ErrCodeCollision means an externally supplied match code is already in use.
	ErrCodeCollision = errors.New("match code already in use")
)
