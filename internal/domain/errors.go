package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrProviderFailure     = errors.New("provider failure")
	ErrNotConfigured       = errors.New("generation provider not configured")
)
