package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonMueller-OneAndOnly/blitz/core/cookie"
)

func TestManager_Set(t *testing.T) {
	t.Parallel()

	t.Run("applies manager defaults", func(t *testing.T) {
		t.Parallel()

		m := cookie.New(cookie.WithSecure(true), cookie.WithSameSite(http.SameSiteStrictMode))
		rec := httptest.NewRecorder()

		m.Set(rec, "token", "value")

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "token", cookies[0].Name)
		assert.Equal(t, "value", cookies[0].Value)
		assert.Equal(t, "/", cookies[0].Path)
		assert.True(t, cookies[0].Secure)
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)
	})

	t.Run("per-call options override defaults", func(t *testing.T) {
		t.Parallel()

		m := cookie.New()
		rec := httptest.NewRecorder()
		expires := time.Now().Add(time.Hour).Truncate(time.Second)

		m.Set(rec, "token", "value",
			cookie.WithHTTPOnly(false),
			cookie.WithDomain("example.com"),
			cookie.WithExpires(expires),
		)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.False(t, cookies[0].HttpOnly)
		assert.Equal(t, "example.com", cookies[0].Domain)
		assert.WithinDuration(t, expires, cookies[0].Expires, time.Second)
	})

	t.Run("replaces pending cookie with same name", func(t *testing.T) {
		t.Parallel()

		m := cookie.New()
		rec := httptest.NewRecorder()

		m.Set(rec, "token", "first")
		m.Set(rec, "other", "kept")
		m.Set(rec, "token", "second")

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 2)

		values := map[string]string{}
		for _, c := range cookies {
			values[c.Name] = c.Value
		}
		assert.Equal(t, "second", values["token"])
		assert.Equal(t, "kept", values["other"])
	})
}

func TestManager_Get(t *testing.T) {
	t.Parallel()

	t.Run("returns cookie value", func(t *testing.T) {
		t.Parallel()

		m := cookie.New()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "token", Value: "value"})

		got, err := m.Get(r, "token")
		require.NoError(t, err)
		assert.Equal(t, "value", got)
	})

	t.Run("returns ErrCookieNotFound for missing cookie", func(t *testing.T) {
		t.Parallel()

		m := cookie.New()
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		_, err := m.Get(r, "token")
		assert.ErrorIs(t, err, cookie.ErrCookieNotFound)
	})
}

func TestManager_Delete(t *testing.T) {
	t.Parallel()

	t.Run("writes expired empty cookie", func(t *testing.T) {
		t.Parallel()

		m := cookie.New()
		rec := httptest.NewRecorder()

		m.Delete(rec, "token")

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Empty(t, cookies[0].Value)
		assert.Equal(t, -1, cookies[0].MaxAge)
		assert.True(t, cookies[0].Expires.Equal(time.Unix(0, 0)))
	})

	t.Run("drops pending value for the name", func(t *testing.T) {
		t.Parallel()

		m := cookie.New()
		rec := httptest.NewRecorder()

		m.Set(rec, "token", "value")
		m.Delete(rec, "token")

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Empty(t, cookies[0].Value)
	})
}

func TestIsLocalhost(t *testing.T) {
	t.Parallel()

	cases := []struct {
		host string
		want bool
	}{
		{"localhost", true},
		{"localhost:3000", true},
		{"app.localhost:3000", true},
		{"127.0.0.1", true},
		{"127.0.0.1:8080", true},
		{"[::1]:8080", true},
		{"example.com", false},
		{"example.com:443", false},
		{"mylocalhost.com", false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.host, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, cookie.IsLocalhost(tc.host))
		})
	}
}
