package auth

import (
	"net/http"
	"time"
)

// CookieName is the cookie that carries the session token.
const CookieName = "token"

// SessionCookies writes and clears the session cookie with consistent
// attributes.
//
// COOKIE ATTRIBUTES:
//   - HttpOnly: JavaScript can't read the token, so XSS can't steal it
//   - Secure: only sent over HTTPS (turn off for plain-HTTP local dev only)
//   - SameSite=Lax: sent on top-level navigations, not on cross-site POSTs
//   - MaxAge: matches the token lifetime, so the browser drops it on expiry
type SessionCookies struct {
	Secure bool
	TTL    time.Duration
}

// Set stores token in the session cookie.
func (c SessionCookies) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear tells the browser to delete the session cookie.
//
// Since sessions are stateless, logging out only removes the client's copy.
// The token itself stays valid until it expires.
func (c SessionCookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest returns the session token, or "" when the cookie is absent.
func TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
