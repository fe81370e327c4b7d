package catalog

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	// ErrValidation is returned for requests that pass binding but break a business rule.
	ErrValidation = errors.New("validation error")
)
