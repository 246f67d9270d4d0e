package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/loangraph/portal/internal/domain/loan"
	"github.com/loangraph/portal/internal/domain/repayment"
	"github.com/loangraph/portal/internal/session"
)

type RepaymentService interface {
	Schedule(ctx context.Context, who session.Identity, loanID string) ([]loan.EMI, error)
	Pay(ctx context.Context, who session.Identity, loanID, emiID string) ([]loan.EMI, error)
}

type EMIHandler struct {
	repayments RepaymentService
	logger     *slog.Logger
}

func NewEMIHandler(repayments RepaymentService, logger *slog.Logger) *EMIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EMIHandler{repayments: repayments, logger: logger}
}

type emiItem struct {
	loan.EMI
	Actions []loan.Action `json:"actions"`
}

func (h *EMIHandler) List(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	emis, err := h.repayments.Schedule(c.Request.Context(), who, strings.TrimSpace(c.Param("id")))
	if err != nil {
		h.repaymentError(c, "list_emis", "Failed to load EMI schedule", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": withEMIActions(emis)})
}

func (h *EMIHandler) Pay(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	loanID := strings.TrimSpace(c.Query("loanId"))
	if loanID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_loan_id"})
		return
	}
	emis, err := h.repayments.Pay(c.Request.Context(), who, loanID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		h.repaymentError(c, "pay_emi", "Failed to pay EMI", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": withEMIActions(emis), "message": "EMI paid successfully!"})
}

func (h *EMIHandler) repaymentError(c *gin.Context, op, fallback string, err error) {
	var rule *repayment.RuleError
	switch {
	case errors.As(err, &rule):
		notAllowed(c, err)
	case errors.Is(err, repayment.ErrLoanNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "loan_not_found"})
	case errors.Is(err, repayment.ErrEMINotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "emi_not_found"})
	default:
		backendFailed(c, h.logger, op, fallback, err)
	}
}

func withEMIActions(emis []loan.EMI) []emiItem {
	out := make([]emiItem, 0, len(emis))
	for _, e := range emis {
		out = append(out, emiItem{EMI: e, Actions: loan.EMIActions(e.Status)})
	}
	return out
}
