// Package middleware provides net/http middleware for the session core.
//
// The session middleware resolves the request's session once, injects it into
// the request context and hands it to handlers via GetSession. CSRF failures
// and authentication requirements short-circuit with configurable error
// responses.
package middleware
