package errors

import "errors"

var (
	ErrNotFound = errors.New("rental not found")

	ErrInvalidID = errors.New("invalid rental ID format")

	ErrAlreadyCancelled = errors.New("rental is already cancelled")

	ErrLockHeld = errors.New("commit lock for this cart is held by another request")
)
