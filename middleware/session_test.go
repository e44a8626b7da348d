package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonMueller-OneAndOnly/blitz/core/session"
	"github.com/LeonMueller-OneAndOnly/blitz/middleware"
)

func newManager(t *testing.T) *session.Manager {
	t.Helper()

	manager, err := session.NewManager(session.DefaultConfig(), session.NewMemoryStore())
	require.NoError(t, err)
	return manager
}

func TestSessionMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("injects session into context", func(t *testing.T) {
		t.Parallel()

		var sess *session.Context
		handler := middleware.Session(newManager(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess = middleware.GetSession(r)
			w.WriteHeader(http.StatusOK)
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, sess)
		assert.True(t, sess.IsAnonymous())
		assert.Equal(t, "true", w.Header().Get("session-created"))
	})

	t.Run("csrf mismatch returns 403", func(t *testing.T) {
		t.Parallel()

		manager := newManager(t)

		// Bootstrap an anonymous session to obtain cookies.
		bootstrap := httptest.NewRecorder()
		_, err := manager.Load(bootstrap, httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)

		handler := middleware.Session(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not run on csrf failure")
		}))

		r := httptest.NewRequest(http.MethodPost, "/", nil)
		for _, ck := range bootstrap.Result().Cookies() {
			if ck.Value != "" {
				r.AddCookie(ck)
			}
		}
		// The anti-csrf-token header is deliberately absent.

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "true", w.Header().Get("csrf-error"))
	})

	t.Run("require auth rejects anonymous", func(t *testing.T) {
		t.Parallel()

		handler := middleware.SessionWithConfig(middleware.SessionConfig{
			Manager:     newManager(t),
			RequireAuth: true,
		})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not run for anonymous sessions")
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("custom error handler", func(t *testing.T) {
		t.Parallel()

		handler := middleware.SessionWithConfig(middleware.SessionConfig{
			Manager:     newManager(t),
			RequireAuth: true,
			ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
				assert.ErrorIs(t, err, session.ErrNotAuthenticated)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
			},
		})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	})

	t.Run("skip bypasses session handling", func(t *testing.T) {
		t.Parallel()

		handler := middleware.SessionWithConfig(middleware.SessionConfig{
			Manager: newManager(t),
			Skip:    func(r *http.Request) bool { return r.URL.Path == "/health" },
		})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Nil(t, middleware.GetSession(r))
			w.WriteHeader(http.StatusOK)
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("session-created"))
	})

	t.Run("nil manager panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			middleware.SessionWithConfig(middleware.SessionConfig{})
		})
	})
}

func TestMustGetSession(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		middleware.MustGetSession(httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
