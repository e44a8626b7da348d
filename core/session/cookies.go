package session

import (
	"net/http"
	"time"

	"github.com/LeonMueller-OneAndOnly/blitz/core/cookie"
)

// Base cookie names; the configured prefix is prepended to each.
const (
	cookieSessionToken          = "sSessionToken"
	cookieAnonymousSessionToken = "sAnonymousSessionToken"
	cookieAntiCSRFToken         = "sAntiCsrfToken"
	cookiePublicDataToken       = "sPublicDataToken"
	cookieIDRefreshToken        = "sIdRefreshToken" // advanced method; recognized, unused
)

const (
	// HeaderAntiCSRFToken carries the double-submit token on state-changing
	// requests; client code copies it from the anti-CSRF cookie.
	HeaderAntiCSRFToken = "anti-csrf-token"
	// HeaderCSRFError is set to "true" on the response when the anti-CSRF
	// check fails.
	HeaderCSRFError = "csrf-error"
	// HeaderSessionCreated is set to "true" when a new session was minted
	// during the request.
	HeaderSessionCreated = "session-created"
	// HeaderPublicDataToken is set to "updated" when the public-data cookie
	// was rewritten.
	HeaderPublicDataToken = "public-data-token"
)

func (m *Manager) cookieName(base string) string {
	return m.cfg.CookiePrefix + base
}

// cookieOptions computes the uniform option set applied to every cookie:
// path=/, secure unless the request host is localhost, the configured
// SameSite mode and domain, and the given expiry.
func (m *Manager) cookieOptions(r *http.Request, expires time.Time) []cookie.Option {
	opts := []cookie.Option{
		cookie.WithPath("/"),
		cookie.WithSecure(m.cfg.SecureCookies && !cookie.IsLocalhost(r.Host)),
		cookie.WithSameSite(m.cfg.SameSite),
		cookie.WithExpires(expires),
	}
	if m.cfg.Domain != "" {
		opts = append(opts, cookie.WithDomain(m.cfg.Domain))
	}
	return opts
}

func (m *Manager) setSessionCookie(w http.ResponseWriter, r *http.Request, token string, expires time.Time) {
	m.cookies.Set(w, m.cookieName(cookieSessionToken), token, m.cookieOptions(r, expires)...)
}

func (m *Manager) setAnonymousSessionCookie(w http.ResponseWriter, r *http.Request, token string, expires time.Time) {
	m.cookies.Set(w, m.cookieName(cookieAnonymousSessionToken), token, m.cookieOptions(r, expires)...)
}

// setCSRFCookie writes the anti-CSRF cookie. It must stay readable by client
// JavaScript, which reflects it into the anti-csrf-token request header.
func (m *Manager) setCSRFCookie(w http.ResponseWriter, r *http.Request, token string, expires time.Time) {
	opts := append(m.cookieOptions(r, expires), cookie.WithHTTPOnly(false))
	m.cookies.Set(w, m.cookieName(cookieAntiCSRFToken), token, opts...)
}

// setPublicDataCookie writes the client-readable public-data mirror and
// signals the update to client code via the public-data-token header.
func (m *Manager) setPublicDataCookie(w http.ResponseWriter, r *http.Request, token string, expires time.Time) {
	opts := append(m.cookieOptions(r, expires), cookie.WithHTTPOnly(false))
	m.cookies.Set(w, m.cookieName(cookiePublicDataToken), token, opts...)
	w.Header().Set(HeaderPublicDataToken, "updated")
}

func (m *Manager) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	m.cookies.Delete(w, m.cookieName(cookieSessionToken), m.cookieOptions(r, time.Unix(0, 0))...)
}

func (m *Manager) clearAnonymousSessionCookie(w http.ResponseWriter, r *http.Request) {
	m.cookies.Delete(w, m.cookieName(cookieAnonymousSessionToken), m.cookieOptions(r, time.Unix(0, 0))...)
}
