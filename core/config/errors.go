package config

import "errors"

var (
	// ErrInvalidConfigType is returned when Load receives anything other than
	// a non-nil pointer to a struct.
	ErrInvalidConfigType = errors.New("config must be a non-nil struct pointer")

	// ErrParseFailed is returned when environment variable parsing fails,
	// typically due to a missing required variable or a malformed value.
	ErrParseFailed = errors.New("failed to parse environment variables")
)
