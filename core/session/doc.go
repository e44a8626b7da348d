// Package session implements cookie-based session management with anonymous
// and authenticated sessions, CSRF protection, and pluggable persistence.
//
// Every request resolves to a session: visitors without credentials receive a
// signed anonymous session carried entirely in a JWT cookie, and logging in
// promotes that session to an authenticated one backed by an opaque token and
// a server-side record. Authenticated sessions roll their expiry forward on
// activity, and all state-changing requests are gated by a double-submit
// anti-CSRF token.
//
// # Core Components
//
// The package provides four main types:
//
//   - Manager: Resolves, creates, refreshes and revokes sessions
//   - Context: Per-request facade handed to application code
//   - Store: Interface for session persistence (memory, Redis, Postgres)
//   - Record: The persisted form of a session
//
// # Basic Usage
//
// Create a manager and load the session inside a handler:
//
//	import "github.com/LeonMueller-OneAndOnly/blitz/core/session"
//
//	cfg := session.DefaultConfig()
//	manager, err := session.NewManager(cfg, session.NewMemoryStore())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		sess, err := manager.Load(w, r)
//		if err != nil {
//			http.Error(w, "Session error", http.StatusInternalServerError)
//			return
//		}
//
//		if sess.IsAnonymous() {
//			fmt.Fprint(w, "Hello anonymous visitor")
//		} else {
//			fmt.Fprintf(w, "Hello user %v", sess.UserID())
//		}
//	}
//
// Log a user in by creating an authenticated session. Public data set while
// anonymous and private data stored server-side both carry over:
//
//	err := sess.Create(r.Context(), session.PublicData{
//		"userId": user.ID,
//		"role":   "admin",
//	}, nil)
//
// Log out with Revoke, or terminate every session of the user (password
// change, account compromise) with RevokeAll:
//
//	handles, err := sess.RevokeAll(r.Context())
//
// # CSRF Protection
//
// Non-GET requests must echo the anti-CSRF cookie value in the
// anti-csrf-token header. On mismatch the request fails with
// ErrCSRFTokenMismatch and the response carries the csrf-error header so
// client code can distinguish the failure from an expired session. The check
// can be disabled for trusted API traffic via
// DANGEROUSLY_DISABLE_CSRF_PROTECTION.
//
// # Configuration
//
// Config is populated from the environment (SESSION_SECRET_KEY,
// SESSION_METHOD, NODE_ENV and friends); see Config for the full list.
// Production requires a secret of at least 32 bytes, while development falls
// back to a built-in key.
//
// # Persistence
//
// Store implementations persist authenticated session records and any
// anonymous sessions holding private data. NewMemoryStore suits development
// and tests; the integration/sessionstore packages provide Redis and
// Postgres adapters.
package session
