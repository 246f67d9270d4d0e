package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loangraph/portal/internal/session"
)

const (
	identityKey = "identity"
	sessionKey  = "session_repo"
)

// Sessions builds the cookie-backed session store for each request. Clock is replaceable in
// tests.
type Sessions struct {
	Cookies session.CookieConfig
	Now     func() time.Time
}

func (s Sessions) Repository(c *gin.Context) session.Repository {
	if v, ok := c.Get(sessionKey); ok {
		if repo, ok := v.(session.Repository); ok {
			return repo
		}
	}
	repo := session.NewCookieRepository(c.Writer, c.Request, s.Cookies)
	c.Set(sessionKey, repo)
	return repo
}

// Decide evaluates the guard for this request. It never caches across requests.
func (s Sessions) Decide(c *gin.Context, required session.Role) session.Decision {
	guard := session.NewGuard(session.DefaultResolver(s.Repository(c)), s.Now)
	return guard.Authorize(required)
}

// RequireSession admits any signed-in caller.
func RequireSession(s Sessions) gin.HandlerFunc {
	return RequireRole(s, "")
}

// RequireRole admits callers holding role. Others get the redirect the guard chose.
func RequireRole(s Sessions, role session.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := s.Decide(c, role)
		switch d.Outcome {
		case session.Allow:
			c.Set(identityKey, d.Identity)
			c.Next()
		case session.RedirectHome:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "redirect": d.Redirect()})
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "redirect": d.Redirect()})
		}
	}
}

// Identity returns the caller admitted by RequireSession or RequireRole.
func Identity(c *gin.Context) (session.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return session.Identity{}, false
	}
	id, ok := v.(session.Identity)
	return id, ok
}
