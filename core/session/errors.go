package session

import "errors"

var (
	// ErrNotAuthenticated is returned when an operation requires an
	// authenticated identity and the session is anonymous.
	ErrNotAuthenticated = errors.New("authentication required")
	// ErrNotAuthorized is returned when an identity is present but the
	// configured authorization predicate denies the request.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrCSRFTokenMismatch is returned when the anti-CSRF token is missing or
	// does not match on a state-changing method.
	ErrCSRFTokenMismatch = errors.New("anti-csrf token mismatch")
	// ErrMalformedToken is returned when a session token cannot be decoded.
	ErrMalformedToken = errors.New("malformed session token")
	// ErrInvalidConfig is returned for configuration failures: missing or
	// short production secret, unknown session method.
	ErrInvalidConfig = errors.New("invalid session configuration")
	// ErrNotImplemented is returned for the advanced (rotating refresh token)
	// method, which is recognized but has no state machine yet.
	ErrNotImplemented = errors.New("session method not implemented")
	// ErrNotFound is returned when a session record cannot be found in the store.
	ErrNotFound = errors.New("session not found")
	// ErrTokenGeneration is returned when cryptographic token generation fails.
	ErrTokenGeneration = errors.New("failed to generate token")
	// ErrMissingUserID is returned when creating an authenticated session
	// without a userId in the public data.
	ErrMissingUserID = errors.New("public data must contain a non-null userId")
	// ErrRolesConflict is returned when public data carries both the role and
	// the roles key; they are mutually exclusive.
	ErrRolesConflict = errors.New("public data cannot contain both role and roles")
	// ErrSaveSession is returned when persisting a session to the store fails.
	ErrSaveSession = errors.New("failed to save session")
)
