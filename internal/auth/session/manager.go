// Package session owns the login cookie. The cookie carries the opaque raw
// token; everything else about the session lives server side.
package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/elimisha-app/elimisha/internal/config"
	"github.com/gin-gonic/gin"
)

const DefaultCookieName = "_sid"

type Manager struct {
	name   string
	secure bool
}

func NewManager(cfg config.Config) *Manager {
	return &Manager{name: DefaultCookieName, secure: cfg.AuthCookieSecure}
}

func (m *Manager) CookieName() string { return m.name }

// ReadToken extracts the raw session token from the request, if present.
func (m *Manager) ReadToken(c *gin.Context) (string, bool) {
	raw, err := c.Cookie(m.name)
	if err != nil || strings.TrimSpace(raw) == "" {
		return "", false
	}
	return raw, true
}

// Set writes the session cookie with a lifetime matching the session expiry.
func (m *Manager) Set(c *gin.Context, token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl < 0 {
		ttl = 0
	}
	m.write(c, token, int(ttl.Seconds()))
}

// Clear expires the cookie immediately.
func (m *Manager) Clear(c *gin.Context) {
	m.write(c, "", -1)
}

func (m *Manager) write(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.name, value, maxAge, "/", "", m.secure, true)
}
