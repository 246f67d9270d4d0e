package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/loangraph/portal/internal/config"
	"github.com/loangraph/portal/internal/http/handlers"
	"github.com/loangraph/portal/internal/http/middleware"
	"github.com/loangraph/portal/internal/session"
	"github.com/loangraph/portal/internal/version"
	"github.com/loangraph/portal/internal/ws"
)

type Dependencies struct {
	Checks           map[string]handlers.Pinger
	Sessions         middleware.Sessions
	SessionHandler   *handlers.SessionHandler
	WizardHandler    *handlers.WizardHandler
	DashboardHandler *handlers.DashboardHandler
	LoanAdminHandler *handlers.LoanAdminHandler
	EMIHandler       *handlers.EMIHandler
	DocumentHandler  *handlers.DocumentHandler
	WSHandler        *ws.Handler
}

func NewRouter(cfg config.Config, logger *slog.Logger, deps Dependencies) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestID,
		)
	})

	health := handlers.NewHealthHandler(deps.Checks)
	meta := handlers.NewMetaHandler(cfg.Env, version.Version, deps.WSHandler != nil)

	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/v1/meta", meta.GetMeta)

	signedIn := middleware.RequireSession(deps.Sessions)
	adminOnly := middleware.RequireRole(deps.Sessions, session.RoleAdmin)

	if deps.SessionHandler != nil {
		sessionGroup := r.Group("/v1/session")
		sessionGroup.GET("", deps.SessionHandler.Current)
		sessionGroup.POST("/profile", deps.SessionHandler.StoreProfile)
		sessionGroup.POST("/logout", deps.SessionHandler.Logout)
	}

	if deps.WizardHandler != nil {
		wizardGroup := r.Group("/v1/wizard")
		wizardGroup.Use(signedIn)
		wizardGroup.GET("/catalog", deps.WizardHandler.Catalog)
		wizardGroup.POST("", deps.WizardHandler.Create)
		wizardGroup.GET("/:id", deps.WizardHandler.Get)
		wizardGroup.PATCH("/:id/fields", deps.WizardHandler.SetFields)
		wizardGroup.PUT("/:id/attachments/:slot", middleware.UploadLimit(cfg.MaxAttachmentBytes), deps.WizardHandler.Attach)
		wizardGroup.DELETE("/:id/attachments/:slot", deps.WizardHandler.Detach)
		wizardGroup.POST("/:id/next", deps.WizardHandler.Next)
		wizardGroup.POST("/:id/back", deps.WizardHandler.Back)
		wizardGroup.POST("/:id/submit", deps.WizardHandler.Submit)
		wizardGroup.DELETE("/:id", deps.WizardHandler.Discard)
	}

	if deps.DashboardHandler != nil {
		r.GET("/v1/dashboard", signedIn, deps.DashboardHandler.Get)
	}

	if deps.LoanAdminHandler != nil {
		adminGroup := r.Group("/v1/loans")
		adminGroup.Use(adminOnly)
		adminGroup.PUT("/:id/status", deps.LoanAdminHandler.UpdateStatus)
		adminGroup.POST("/:id/disburse", deps.LoanAdminHandler.Disburse)
		adminGroup.GET("/:id/documents", deps.LoanAdminHandler.Documents)
	}

	if deps.EMIHandler != nil {
		r.GET("/v1/loans/:id/emis", signedIn, deps.EMIHandler.List)
		r.POST("/v1/emis/:id/pay", signedIn, deps.EMIHandler.Pay)
	}

	if deps.DocumentHandler != nil {
		documentGroup := r.Group("/v1/documents")
		documentGroup.Use(signedIn)
		documentGroup.GET("", deps.DocumentHandler.List)
		documentGroup.POST("", middleware.UploadLimit(cfg.MaxAttachmentBytes), deps.DocumentHandler.Upload)
		documentGroup.DELETE("/:id", deps.DocumentHandler.Delete)
	}

	if deps.WSHandler != nil {
		r.GET("/v1/ws", signedIn, deps.WSHandler.HandleWebSocket)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})

	return r
}
