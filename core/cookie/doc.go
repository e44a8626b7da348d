// Package cookie provides HTTP cookie management with shared defaults and an
// exactly-one-value guarantee per cookie name.
//
// The manager applies a uniform option set (path, domain, secure, SameSite,
// expiry) to every cookie it writes, while individual writes can override any
// attribute through functional options. Writing a cookie replaces any
// Set-Cookie header for the same name already queued on the response, so a
// request that rewrites a credential several times still emits a single value.
//
// Basic usage:
//
//	manager := cookie.New(
//		cookie.WithSecure(true),
//		cookie.WithSameSite(http.SameSiteLaxMode),
//	)
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		manager.Set(w, "token", value, cookie.WithExpires(time.Now().Add(time.Hour)))
//
//		token, err := manager.Get(r, "token")
//		if errors.Is(err, cookie.ErrCookieNotFound) {
//			// no cookie in request
//		}
//
//		manager.Delete(w, "token")
//	}
//
// Delete writes an empty value with an epoch-zero expiry, which is the
// portable way to clear a cookie across browsers.
package cookie
