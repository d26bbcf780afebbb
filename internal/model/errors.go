package model

import "errors"

var (
	// ErrDataUnavailable means the provider failed or returned no bars.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrFitFailure means a column's model could not be estimated.
	ErrFitFailure = errors.New("forecast unavailable")
	// ErrDivideByZero means the percentage change has a zero base.
	ErrDivideByZero = errors.New("division by zero")
	// ErrInvalidRequest means the caller supplied an unknown ticker or an out-of-range value.
	ErrInvalidRequest = errors.New("invalid request")
)
