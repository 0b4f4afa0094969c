package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidProduct = errors.New("invalid product")
	ErrUnknownSortKey = errors.New("unknown sort key")
	ErrEmptySeed      = errors.New("empty seed data")
)
