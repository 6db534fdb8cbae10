package middleware

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"dreamhome/web/internal/session"
)

const (
	// ContextKeySession holds the *session.Session in the Gin context.
	ContextKeySession = "session"
	// ContextKeyVisitorID holds the anonymous visitor ID in the Gin context.
	ContextKeyVisitorID = "visitorID"

	visitorCookieName = "dreamhome_visitor"
	visitorCookieTTL  = 30 * 24 * time.Hour
)

// CookieSettings controls the session cookie.
type CookieSettings struct {
	Name   string
	Secure bool
}

// SessionMiddleware loads the session named by the session cookie and
// attaches it to both the Gin context and the request context, where the
// backend client picks up the token. It also makes sure every browser carries
// a visitor ID.
func SessionMiddleware(mgr *session.Manager, cookie CookieSettings, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(cookie.Name)
		s, err := mgr.Init(c.Request.Context(), id)
		if err != nil {
			logger.Warn("failed to load session", zap.Error(err))
		}
		if id != "" && !s.IsLoggedIn() {
			ClearSessionCookie(c, cookie)
		}

		visitor, _ := c.Cookie(visitorCookieName)
		if visitor == "" {
			visitor = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(visitorCookieName, visitor, int(visitorCookieTTL.Seconds()), "/", "", cookie.Secure, true)
		}

		c.Set(ContextKeySession, s)
		c.Set(ContextKeyVisitorID, visitor)
		c.Request = c.Request.WithContext(session.WithSession(c.Request.Context(), s))
		c.Next()
	}
}

// CurrentSession returns the session loaded by SessionMiddleware, or a guest.
func CurrentSession(c *gin.Context) *session.Session {
	if v, ok := c.Get(ContextKeySession); ok {
		if s, ok := v.(*session.Session); ok && s != nil {
			return s
		}
	}
	return &session.Session{}
}

// VisitorID identifies the browser across requests, logged in or not.
func VisitorID(c *gin.Context) string {
	return c.GetString(ContextKeyVisitorID)
}

// SetSessionCookie stores s.ID in the session cookie until the session expires.
func SetSessionCookie(c *gin.Context, cookie CookieSettings, s *session.Session) {
	maxAge := int(time.Until(s.ExpiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookie.Name, s.ID, maxAge, "/", "", cookie.Secure, true)
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c *gin.Context, cookie CookieSettings) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookie.Name, "", -1, "/", "", cookie.Secure, true)
}

// RequireLogin redirects guests to the login page, remembering where they
// were headed.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentSession(c).IsLoggedIn() {
			c.Redirect(http.StatusSeeOther, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin lets administrators through. Guests go to the login page;
// other users get forbidden.
func RequireAdmin(forbidden gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := CurrentSession(c)
		if !s.IsLoggedIn() {
			c.Redirect(http.StatusSeeOther, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		if !s.IsAdmin() {
			forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
