package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loangraph/portal/internal/http/middleware"
	"github.com/loangraph/portal/internal/session"
)

type userMessenger interface {
	UserMessage() string
}

func userMessage(err error, fallback string) string {
	var m userMessenger
	if errors.As(err, &m) && m.UserMessage() != "" {
		return m.UserMessage()
	}
	return fallback
}

// caller returns the guarded identity or aborts with the login redirect.
func caller(c *gin.Context) (session.Identity, bool) {
	who, ok := middleware.Identity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "redirect": session.LoginPath})
		return session.Identity{}, false
	}
	return who, true
}

// backendFailed reports a failed call to the loan service once. It is never retried.
func backendFailed(c *gin.Context, logger *slog.Logger, op, fallback string, err error) {
	logger.WarnContext(c.Request.Context(), "backend call failed", "op", op, "err", err)
	c.JSON(http.StatusBadGateway, gin.H{"error": op + "_failed", "message": userMessage(err, fallback)})
}

func notAllowed(c *gin.Context, err error) {
	c.JSON(http.StatusConflict, gin.H{"error": "not_allowed", "message": userMessage(err, err.Error())})
}
