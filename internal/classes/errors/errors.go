package errors

import "errors"

var (
	ErrNotFound = errors.New("fitness class not found")
)
