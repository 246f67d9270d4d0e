package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/loangraph/portal/internal/http/middleware"
	"github.com/loangraph/portal/internal/session"
)

// SessionHandler stores and reads what the external sign-in flow produced. It performs no
// authentication of its own.
type SessionHandler struct {
	sessions middleware.Sessions
}

func NewSessionHandler(sessions middleware.Sessions) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type storeProfileRequest struct {
	User  json.RawMessage `json:"user"`
	Token string          `json:"token"`
}

func (h *SessionHandler) StoreProfile(c *gin.Context) {
	var req storeProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	var profile session.Profile
	if len(req.User) > 0 {
		if err := json.Unmarshal(req.User, &profile); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_profile"})
			return
		}
	}
	if len(req.User) == 0 && strings.TrimSpace(req.Token) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_session"})
		return
	}

	repo := h.sessions.Repository(c)
	if len(req.User) > 0 {
		if err := session.SignIn(repo, profile, req.Token); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_profile"})
			return
		}
	} else {
		repo.Set(session.TokenKey, req.Token)
	}
	h.respond(c, h.sessions.Decide(c, ""))
}

func (h *SessionHandler) Logout(c *gin.Context) {
	session.SignOut(h.sessions.Repository(c))
	c.JSON(http.StatusOK, gin.H{"ok": true, "redirect": session.LoginPath})
}

// Current evaluates the guard for ?role= (empty means any signed-in caller).
func (h *SessionHandler) Current(c *gin.Context) {
	required := session.Role("")
	if raw := strings.TrimSpace(c.Query("role")); raw != "" {
		required = session.ParseRole(raw)
	}
	h.respond(c, h.sessions.Decide(c, required))
}

func (h *SessionHandler) respond(c *gin.Context, d session.Decision) {
	body := gin.H{"outcome": d.Outcome}
	if r := d.Redirect(); r != "" {
		body["redirect"] = r
	}
	if d.Outcome != session.RedirectLogin {
		body["identity"] = d.Identity
	}
	c.JSON(http.StatusOK, body)
}
