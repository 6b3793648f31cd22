package models

import "errors"

var (
	ErrInvalidField         = errors.New("invalid field")
	ErrMissingReferenceYear = errors.New("missing reference year")
	ErrMissingISOCode       = errors.New("missing iso code")
	ErrExternalFetch        = errors.New("external fetch failed")
)
