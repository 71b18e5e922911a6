// Package core defines the fundamental types and errors for NIRA.
package core

import "errors"

// Core errors that can occur across the system
var (
	// Identity errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrTokenExpired = errors.New("identity token expired")

	// Storage errors
	ErrProfileNotFound = errors.New("profile not found")
	ErrConfigNotFound  = errors.New("global config not found")
	ErrMigrationFailed = errors.New("migration failed")

	// Chat pipeline errors
	ErrUserSuspended   = errors.New("user is suspended")
	ErrEmptyMessage    = errors.New("message is required")
	ErrProviderFailed  = errors.New("provider call failed")
	ErrEmptyCompletion = errors.New("provider returned empty completion")

	// Vision errors
	ErrImageRequired = errors.New("image is required")
	ErrImageTooSmall = errors.New("image payload too small to be valid")
	ErrVisionFailed  = errors.New("vision analysis failed")

	// TTS errors
	ErrTextRequired = errors.New("text is required")
	ErrTTSFailed    = errors.New("tts generation failed")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
)
