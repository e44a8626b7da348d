package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/LeonMueller-OneAndOnly/blitz/core/session"
)

// SessionConfig configures the session middleware.
type SessionConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(r *http.Request) bool
	// Manager resolves and creates sessions (required)
	Manager *session.Manager
	// Logger for structured logging (default: slog with io.Discard)
	Logger *slog.Logger
	// RequireAuth rejects anonymous sessions with the ErrorHandler response
	RequireAuth bool
	// ErrorHandler defines the response for session failures.
	// Default: 403 for CSRF mismatches, 401 for RequireAuth violations,
	// 500 otherwise.
	ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)
}

// Session creates middleware that resolves the session for every request and
// injects it into the request context, where handlers retrieve it with
// GetSession. Requests without a valid credential proceed with a freshly
// minted anonymous session.
//
// Usage:
//
//	mux := http.NewServeMux()
//	mux.Handle("/", middleware.Session(manager)(appHandler))
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		sess := middleware.GetSession(r)
//		if sess.IsAnonymous() {
//			// ...
//		}
//	}
func Session(manager *session.Manager) func(http.Handler) http.Handler {
	return SessionWithConfig(SessionConfig{Manager: manager})
}

// SessionWithConfig creates a session middleware with custom configuration.
//
//	// Require authentication with a redirect to the login page
//	cfg := middleware.SessionConfig{
//		Manager:     manager,
//		RequireAuth: true,
//		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
//			http.Redirect(w, r, "/login", http.StatusSeeOther)
//		},
//	}
//	protected := middleware.SessionWithConfig(cfg)
//
//	// Skip session handling for health checks
//	cfg := middleware.SessionConfig{
//		Manager: manager,
//		Skip: func(r *http.Request) bool {
//			return r.URL.Path == "/health"
//		},
//	}
func SessionWithConfig(cfg SessionConfig) func(http.Handler) http.Handler {
	if cfg.Manager == nil {
		panic("session middleware: manager is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := cfg.Manager.Load(w, r)
			if err != nil {
				if !errors.Is(err, session.ErrCSRFTokenMismatch) {
					cfg.Logger.ErrorContext(r.Context(), "session middleware: failed to load session", "error", err)
				}
				cfg.ErrorHandler(w, r, err)
				return
			}

			if cfg.RequireAuth && sess.IsAnonymous() {
				cfg.ErrorHandler(w, r, session.ErrNotAuthenticated)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.NewRequestContext(r.Context(), sess)))
		})
	}
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrCSRFTokenMismatch):
		http.Error(w, "anti-csrf token mismatch", http.StatusForbidden)
	case errors.Is(err, session.ErrNotAuthenticated):
		http.Error(w, "authentication required", http.StatusUnauthorized)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// GetSession retrieves the session injected by the middleware, or nil when
// the middleware did not run for this request.
func GetSession(r *http.Request) *session.Context {
	return session.FromContext(r.Context())
}

// MustGetSession retrieves the session from the request or panics.
// Use this when the middleware is guaranteed to have run.
func MustGetSession(r *http.Request) *session.Context {
	sess := GetSession(r)
	if sess == nil {
		panic("session not found in request context")
	}
	return sess
}
