package middleware

import (
	"net/http"
	"time"

	"dataops/internal/session"

	"github.com/gin-gonic/gin"
)

// CookieName is the cookie carrying the dashboard session id
const CookieName = "dataops_session"

const (
	sessionKey   = "dashboard_session"
	sessionIDKey = "dashboard_session_id"
)

// EnsureSession attaches the caller's dashboard session to the context,
// issuing a new session cookie when the caller has none or it has expired
func EnsureSession(store *session.Store, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(CookieName)
		sess, created := store.GetOrCreate(id)

		// refresh on every request so the browser expiry tracks idle time
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     CookieName,
			Value:    sess.ID,
			Path:     "/",
			MaxAge:   int(ttl.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		if created {
			c.Header("X-Session-Created", "true")
		}

		c.Set(sessionKey, sess)
		c.Set(sessionIDKey, sess.ID)
		c.Next()
	}
}

// CurrentSession returns the session attached by EnsureSession
func CurrentSession(c *gin.Context) *session.Session {
	if v, ok := c.Get(sessionKey); ok {
		if sess, ok := v.(*session.Session); ok {
			return sess
		}
	}
	return nil
}
