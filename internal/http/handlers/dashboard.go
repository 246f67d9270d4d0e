package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loangraph/portal/internal/dashboard"
	"github.com/loangraph/portal/internal/domain/loan"
)

type DashboardHandler struct {
	source dashboard.Source
	logger *slog.Logger
}

func NewDashboardHandler(source dashboard.Source, logger *slog.Logger) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{source: source, logger: logger}
}

// Get loads the caller's records (all of them for admins) and, for applicants, their
// document library alongside. The two fetches fail independently.
func (h *DashboardHandler) Get(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	req := dashboard.Request{Scope: loan.ScopeUser(who.ID)}
	if who.IsAdmin() {
		req.Scope = loan.ScopeAll()
	} else {
		req.DocumentsOwner = who.ID
	}

	loader := dashboard.NewLoader(h.source)
	defer loader.Close()
	if err := loader.Load(c.Request.Context(), req); err != nil {
		// the client went away; nothing to answer
		c.Status(499)
		return
	}

	apps := loader.Applications.Load()
	if apps.Err != nil {
		backendFailed(c, h.logger, "list_loans", "Failed to load applications", apps.Err)
		return
	}

	body := gin.H{"dashboard": dashboard.Build(who, apps.Value, c.Query("q"), c.Query("status"))}
	if req.DocumentsOwner != "" {
		docs := loader.Documents.Load()
		if docs.Err != nil {
			h.logger.WarnContext(c.Request.Context(), "backend call failed", "op", "list_documents", "err", docs.Err)
			body["documentsError"] = userMessage(docs.Err, "Failed to load your documents")
		} else {
			body["documents"] = docs.Value
		}
	}
	c.JSON(http.StatusOK, body)
}
