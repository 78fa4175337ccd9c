package gallery

import "errors"

var (
	// ErrNotFound is returned when a record or blob does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrStorage is returned when a blob store operation fails
	ErrStorage = errors.New("storage error")
	// ErrPersistence is returned when a metadata store operation fails
	ErrPersistence = errors.New("persistence error")
	// ErrUnauthorized is returned when signature verification fails
	ErrUnauthorized = errors.New("unauthorized")
)
