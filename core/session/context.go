package session

import (
	"context"
	"net/http"
)

// Context is the per-request session facade handed to application code. It
// wraps the resolved kernel and the response writer, so every mutation it
// performs lands on the live response. A Context is bound to a single request
// and is not safe for concurrent use.
type Context struct {
	manager *Manager
	w       http.ResponseWriter
	r       *http.Request
	kernel  *Kernel
}

// Handle returns the session handle.
func (c *Context) Handle() string {
	return c.kernel.Handle
}

// UserID returns the authenticated user's identifier, nil when anonymous.
func (c *Context) UserID() any {
	return c.kernel.UserID()
}

// IsAnonymous reports whether the session is anonymous.
func (c *Context) IsAnonymous() bool {
	return c.kernel.IsAnonymous()
}

// PublicData returns a copy of the session's public data; mutating it does
// not affect the session. Use SetPublicData to persist changes.
func (c *Context) PublicData() PublicData {
	return mergeData(PublicData{}, c.kernel.PublicData)
}

// Get returns the public data value for key, nil when absent.
func (c *Context) Get(key string) any {
	return c.kernel.PublicData[key]
}

// AntiCSRFToken returns the session's anti-CSRF token, for embedding into
// rendered pages.
func (c *Context) AntiCSRFToken() string {
	return c.kernel.AntiCSRFToken
}

// IsAuthorized reports whether the configured authorization predicate admits
// this session with the given arguments. Anonymous sessions are never
// authorized; with no predicate configured, no session is.
func (c *Context) IsAuthorized(args ...any) bool {
	if c.kernel.IsAnonymous() || c.manager.cfg.IsAuthorized == nil {
		return false
	}
	return c.manager.cfg.IsAuthorized.Authorize(c, args...)
}

// Authorize is the error-returning form of IsAuthorized: anonymous sessions
// get ErrNotAuthenticated, denied authenticated sessions ErrNotAuthorized.
func (c *Context) Authorize(args ...any) error {
	if c.kernel.IsAnonymous() {
		return ErrNotAuthenticated
	}
	if c.manager.cfg.IsAuthorized == nil || !c.manager.cfg.IsAuthorized.Authorize(c, args...) {
		return ErrNotAuthorized
	}
	return nil
}

// Create replaces the current session with a new authenticated one. The
// public data must carry a non-nil userId. When the current session is
// anonymous it is promoted: its public data is merged under publicData and
// its server-side private data carries over.
func (c *Context) Create(ctx context.Context, publicData PublicData, privateData PrivateData) error {
	kernel, err := c.manager.createNewSession(ctx, c.w, c.r, publicData, privateData, c.kernel)
	if err != nil {
		return err
	}
	c.kernel = kernel
	return nil
}

// Revoke terminates the current session and replaces it with a fresh
// anonymous one.
func (c *Context) Revoke(ctx context.Context) error {
	kernel, err := c.manager.revokeSession(ctx, c.w, c.r, c.kernel.Handle)
	if err != nil {
		return err
	}
	c.kernel = kernel
	return nil
}

// RevokeAll terminates every session belonging to the current user, the
// current one included, and returns the revoked handles. The caller's session
// becomes anonymous. On an anonymous session only the current session is
// revoked.
func (c *Context) RevokeAll(ctx context.Context) ([]string, error) {
	userID := c.kernel.UserID()
	if err := c.Revoke(ctx); err != nil {
		return nil, err
	}
	if userID == nil {
		return nil, nil
	}
	return c.manager.revokeAllSessionsForUser(ctx, userID)
}

// SetPublicData merges data into the session's public data and persists the
// result. The userId key cannot be changed this way and is ignored if
// present. Keys listed in PublicDataKeysToSync propagate to the user's other
// sessions.
func (c *Context) SetPublicData(ctx context.Context, data PublicData) error {
	return c.manager.setPublicData(ctx, c.w, c.r, c.kernel, data)
}

// GetPrivateData returns the session's server-side private data. Sessions
// that never stored any yield an empty map.
func (c *Context) GetPrivateData(ctx context.Context) (PrivateData, error) {
	return c.manager.getPrivateData(ctx, c.kernel.Handle)
}

// SetPrivateData merges data into the session's private data. For anonymous
// sessions a store record is created on first write.
func (c *Context) SetPrivateData(ctx context.Context, data PrivateData) error {
	return c.manager.setPrivateData(ctx, c.kernel, data)
}
