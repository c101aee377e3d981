package services

import "errors"

var (
	// ErrValidation wraps every user input problem; the HTTP layer maps it to 422.
	ErrValidation     = errors.New("validation failed")
	ErrWalletNotFound = errors.New("wallet not found")
)
