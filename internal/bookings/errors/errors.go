package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrDuplicateReference = errors.New("booking reference already in use")

	ErrDuplicateBooking = errors.New("client already holds a confirmed booking for this class")
)
