package domain

import "errors"

var (
	ErrForbidden    = errors.New("forbidden role")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)
