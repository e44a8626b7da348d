package pg

import "errors"

var (
	ErrFailedToParseConnString = errors.New("failed to parse postgres connection string")
	ErrNotReady                = errors.New("postgres did not become ready within the given time period")
	ErrEmptyConnectionString   = errors.New("empty postgres connection string")
	ErrHealthcheckFailed       = errors.New("postgres healthcheck failed")
)
