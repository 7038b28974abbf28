package errors

import "errors"

var (
	ErrNotFound = errors.New("cart not found")

	ErrInvalidStatus = errors.New("invalid cart status")
)
