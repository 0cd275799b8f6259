package apperrors

import (
	"errors"
)

var (
	// Caller supplied a negative amount (or one the balance can't hold)
	ErrInvalidAmount = errors.New("invalid amount")

	// Use amount exceeds current user points
	ErrInsufficientBalance = errors.New("insufficient balance")

	// Unexpected storage failure. Wrapped around the original error
	ErrInternal = errors.New("internal error")
)
