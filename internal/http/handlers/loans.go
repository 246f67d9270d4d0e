package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	admindomain "github.com/loangraph/portal/internal/domain/admin"
	"github.com/loangraph/portal/internal/domain/loan"
	"github.com/loangraph/portal/internal/session"
)

type AdminService interface {
	UpdateStatus(ctx context.Context, who session.Identity, applicationID, status string) (loan.Record, error)
	Disburse(ctx context.Context, who session.Identity, applicationID string) (loan.Record, error)
}

type ApplicationDocuments interface {
	ListApplicationDocuments(ctx context.Context, applicationID string) ([]loan.Document, error)
}

// LoanAdminHandler serves the admin's per-application actions.
type LoanAdminHandler struct {
	admin  AdminService
	docs   ApplicationDocuments
	logger *slog.Logger
}

func NewLoanAdminHandler(admin AdminService, docs ApplicationDocuments, logger *slog.Logger) *LoanAdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoanAdminHandler{admin: admin, docs: docs, logger: logger}
}

func (h *LoanAdminHandler) UpdateStatus(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	status := strings.TrimSpace(c.Query("status"))
	if target, err := loan.ParseStatus(status); err != nil || (target != loan.StatusApproved && target != loan.StatusRejected) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_status"})
		return
	}
	rec, err := h.admin.UpdateStatus(c.Request.Context(), who, id, status)
	if err != nil {
		h.adminError(c, "status_update", "Status update failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"application": rec, "message": "Application " + strings.ToLower(string(rec.Status)) + "!"})
}

func (h *LoanAdminHandler) Disburse(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	rec, err := h.admin.Disburse(c.Request.Context(), who, strings.TrimSpace(c.Param("id")))
	if err != nil {
		h.adminError(c, "disbursement", "Disbursement failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"application": rec, "message": "Loan disbursed!"})
}

func (h *LoanAdminHandler) Documents(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_application_id", "message": "Application ID not found."})
		return
	}
	docs, err := h.docs.ListApplicationDocuments(c.Request.Context(), id)
	if err != nil {
		backendFailed(c, h.logger, "list_documents", "Failed to load documents", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": docs})
}

func (h *LoanAdminHandler) adminError(c *gin.Context, op, fallback string, err error) {
	var rule *admindomain.RuleError
	switch {
	case errors.As(err, &rule):
		notAllowed(c, err)
	case errors.Is(err, admindomain.ErrApplicationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "application_not_found"})
	case errors.Is(err, admindomain.ErrNotAdmin):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "redirect": session.HomePath})
	default:
		backendFailed(c, h.logger, op, fallback, err)
	}
}
