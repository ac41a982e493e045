package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKey is where gate middleware exposes the bound visitor id on the
// gin context.
const ContextKey = "visitorID"

// Manager ties the Store to the browser cookie and provides the request
// gates. It never touches the visitor tables; the gate only inspects the
// caller's session.
type Manager struct {
	store  Store
	cookie string
	ttl    time.Duration
	secure bool
}

// NewManager creates a manager. ttl drives both the cookie Max-Age and the
// server-side binding TTL.
func NewManager(store Store, cookieName string, ttl time.Duration, secure bool) *Manager {
	return &Manager{store: store, cookie: cookieName, ttl: ttl, secure: secure}
}

// Establish replaces the caller's session with a fresh token bound to
// visitorID and sets the cookie.
func (m *Manager) Establish(c *gin.Context, visitorID int64) error {
	token := uuid.NewString()
	if err := m.store.Bind(c.Request.Context(), token, visitorID, m.ttl); err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookie, token, int(m.ttl.Seconds()), "/", "", m.secure, true)
	return nil
}

// Clear invalidates the server-side binding and expires the cookie.
func (m *Manager) Clear(c *gin.Context) {
	if token, err := c.Cookie(m.cookie); err == nil && token != "" {
		_ = m.store.Invalidate(c.Request.Context(), token)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookie, "", -1, "/", "", m.secure, true)
}

// VisitorID resolves the caller's bound visitor id, if any.
func (m *Manager) VisitorID(c *gin.Context) (int64, bool) {
	token, err := c.Cookie(m.cookie)
	if err != nil || token == "" {
		return 0, false
	}
	id, ok, err := m.store.Lookup(c.Request.Context(), token)
	if err != nil || !ok {
		return 0, false
	}
	return id, true
}

// RequireVisitor gates API endpoints: no bound visitor means 401.
func (m *Manager) RequireVisitor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := m.VisitorID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No visitor session"})
			return
		}
		c.Set(ContextKey, id)
		c.Next()
	}
}

// RedirectToLogin gates HTML pages: no bound visitor means a redirect to the
// login surface instead of the page.
func (m *Manager) RedirectToLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := m.VisitorID(c); !ok {
			c.Redirect(http.StatusFound, "/login.html")
			c.Abort()
			return
		}
		c.Next()
	}
}
