package cookie

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"time"
)

// Manager handles HTTP cookie operations with shared defaults.
// All writes go through the pending Set-Cookie header set of the response,
// replacing earlier values for the same name.
type Manager struct {
	defaults Options
}

// New creates a cookie manager. Defaults are path=/, HttpOnly and
// SameSite=Lax; options override them for every cookie the manager writes.
func New(opts ...Option) *Manager {
	defaults := Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &Manager{defaults: applyOptions(defaults, opts)}
}

// Set queues a cookie on the response. Any Set-Cookie header already queued
// for the same name is dropped first, so each name resolves to exactly one
// value when the response is flushed.
func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) {
	options := applyOptions(m.defaults, opts)

	removePending(w, name)
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   options.MaxAge,
		Expires:  options.Expires,
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	})
}

// Get retrieves a cookie value from the request.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	cookie, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}
	return cookie.Value, nil
}

// Delete clears a cookie by writing an empty value with an epoch-zero expiry.
func (m *Manager) Delete(w http.ResponseWriter, name string, opts ...Option) {
	options := applyOptions(m.defaults, opts)

	removePending(w, name)
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	})
}

// removePending drops queued Set-Cookie headers matching name.
func removePending(w http.ResponseWriter, name string) {
	pending := w.Header()["Set-Cookie"]
	if len(pending) == 0 {
		return
	}

	kept := make([]string, 0, len(pending))
	prefix := name + "="
	for _, h := range pending {
		if !strings.HasPrefix(h, prefix) {
			kept = append(kept, h)
		}
	}

	if len(kept) == 0 {
		w.Header().Del("Set-Cookie")
		return
	}
	w.Header()["Set-Cookie"] = kept
}

// IsLocalhost reports whether the request host refers to a local address.
// The port, if present, is ignored.
func IsLocalhost(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.Trim(host, "[]"))

	return host == "localhost" ||
		strings.HasSuffix(host, ".localhost") ||
		host == "127.0.0.1" ||
		host == "::1"
}
