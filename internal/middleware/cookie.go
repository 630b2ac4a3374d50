package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SessionCookieName is the cookie carrying the opaque session token
const SessionCookieName = "sessionToken"

// SessionCookie writes and clears the session cookie. Secure should be set
// in production so the token never travels over plain HTTP.
type SessionCookie struct {
	Secure bool
}

// Set stores token in the client with a max-age equal to lifetime
func (sc SessionCookie) Set(c *gin.Context, token string, lifetime time.Duration) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookieName, token, int(lifetime/time.Second), "/", "", sc.Secure, true)
}

// Clear instructs the client to drop the session cookie
func (sc SessionCookie) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", sc.Secure, true)
}

// Token returns the session token presented by the client, or "" when absent
func (sc SessionCookie) Token(c *gin.Context) string {
	token, err := c.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return token
}
