package clientcli

import "errors"

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
)

// Errors for configuration validation.
var (
	ErrConfigRequired  = errors.New("config is required")
	ErrInvalidEndpoint = errors.New("endpoint must be an absolute http(s) URL")
)

// Errors for input validation.
var (
	ErrNoPaths   = errors.New("no paths provided")
	ErrNoIDs     = errors.New("no image ids provided")
	ErrEmptyPath = errors.New("path is required")
	ErrEmptyID   = errors.New("image id is required")
)
