package auth

import "invoicehub-backend/internal/pkg/apperr"

var (
	ErrEmailPasswordRequired = apperr.Validation("Email and password are required")
	ErrInvalidEmail          = apperr.New("Invalid Email", apperr.ErrUnauthorized)
	ErrIncorrectPassword     = apperr.New("Incorrect Password", apperr.ErrUnauthorized)
	ErrNotAuthenticated      = apperr.New("Not authenticated", apperr.ErrUnauthorized)
)
