// Package admin carries out an admin's decisions on loan applications: approve, reject and
// disburse. Each one is checked against the transition table before the loan service is
// called, then audited and announced to the applicant.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/loangraph/portal/internal/domain/loan"
	"github.com/loangraph/portal/internal/session"
	"github.com/loangraph/portal/internal/ws"
)

var (
	ErrNotAdmin            = errors.New("caller is not an admin")
	ErrApplicationNotFound = errors.New("application not found")
)

// RuleError is a decision the transition table refuses.
type RuleError struct {
	Action  loan.Action
	Status  loan.Status
	Message string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s not allowed for %s application", e.Action, e.Status)
}

func (e *RuleError) UserMessage() string {
	return e.Message
}

type LoanBackend interface {
	ListLoans(ctx context.Context, scope loan.Scope) ([]loan.Record, error)
	UpdateStatus(ctx context.Context, applicationID string, status loan.Status) error
	Disburse(ctx context.Context, applicationID string, amount float64) error
}

type AuditRepository interface {
	Log(ctx context.Context, in AuditLogInput) error
}

type AuditLogInput struct {
	AdminUserID string
	Action      string
	TargetType  string
	TargetID    string
	Payload     []byte
}

// Notifier is satisfied by *ws.Notifier.
type Notifier interface {
	Notify(userID string, ev ws.Event)
}

type Service struct {
	backend   LoanBackend
	auditRepo AuditRepository
	notifier  Notifier
	logger    *slog.Logger
}

func NewService(backend LoanBackend, auditRepo AuditRepository, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: backend, auditRepo: auditRepo, notifier: notifier, logger: logger}
}

// Find looks an application up in the full list, the only lookup the loan service offers.
func (s *Service) Find(ctx context.Context, applicationID string) (loan.Record, error) {
	applicationID = strings.TrimSpace(applicationID)
	if applicationID == "" {
		return loan.Record{}, ErrApplicationNotFound
	}
	records, err := s.backend.ListLoans(ctx, loan.ScopeAll())
	if err != nil {
		return loan.Record{}, err
	}
	for _, r := range records {
		if r.ID == applicationID {
			return r, nil
		}
	}
	return loan.Record{}, ErrApplicationNotFound
}

func (s *Service) Approve(ctx context.Context, who session.Identity, applicationID string) (loan.Record, error) {
	return s.decide(ctx, who, applicationID, loan.ActionApprove, loan.StatusApproved)
}

func (s *Service) Reject(ctx context.Context, who session.Identity, applicationID string) (loan.Record, error) {
	return s.decide(ctx, who, applicationID, loan.ActionReject, loan.StatusRejected)
}

// UpdateStatus routes a raw status request to Approve or Reject.
func (s *Service) UpdateStatus(ctx context.Context, who session.Identity, applicationID, status string) (loan.Record, error) {
	target, err := loan.ParseStatus(status)
	if err != nil {
		return loan.Record{}, err
	}
	switch target {
	case loan.StatusApproved:
		return s.Approve(ctx, who, applicationID)
	case loan.StatusRejected:
		return s.Reject(ctx, who, applicationID)
	}
	return loan.Record{}, fmt.Errorf("status %s cannot be set directly", target)
}

// Disburse pays out the full requested amount of an approved application.
func (s *Service) Disburse(ctx context.Context, who session.Identity, applicationID string) (loan.Record, error) {
	if !who.IsAdmin() {
		return loan.Record{}, ErrNotAdmin
	}
	rec, err := s.Find(ctx, applicationID)
	if err != nil {
		return loan.Record{}, err
	}
	if !loan.Allowed(rec.Status, session.RoleAdmin, loan.ActionDisburse) {
		return rec, &RuleError{Action: loan.ActionDisburse, Status: rec.Status, Message: "Loan application must be approved before disbursement"}
	}
	amount := float64(rec.LoanAmount)
	if err := s.backend.Disburse(ctx, rec.ID, amount); err != nil {
		return rec, err
	}
	rec.Status = loan.StatusDisbursed

	s.audit(ctx, who, "loan_disbursed", rec.ID, map[string]any{"amount": amount})
	s.notify(rec, ws.Event{Type: ws.EventLoanDisbursed, Message: "Your loan has been disbursed!"})
	return rec, nil
}

func (s *Service) decide(ctx context.Context, who session.Identity, applicationID string, action loan.Action, target loan.Status) (loan.Record, error) {
	if !who.IsAdmin() {
		return loan.Record{}, ErrNotAdmin
	}
	rec, err := s.Find(ctx, applicationID)
	if err != nil {
		return loan.Record{}, err
	}
	if !loan.Allowed(rec.Status, session.RoleAdmin, action) {
		return rec, &RuleError{Action: action, Status: rec.Status, Message: "Only pending applications can be " + strings.ToLower(string(target))}
	}
	if err := s.backend.UpdateStatus(ctx, rec.ID, target); err != nil {
		return rec, err
	}
	from := rec.Status
	rec.Status = target

	s.audit(ctx, who, "loan_status_updated", rec.ID, map[string]any{"from": from, "to": target})
	s.notify(rec, ws.Event{Type: ws.EventStatusChanged, Message: "Application " + strings.ToLower(string(target)) + "!"})
	return rec, nil
}

// audit never fails the decision; the loan service already applied it.
func (s *Service) audit(ctx context.Context, who session.Identity, action, targetID string, payload map[string]any) {
	if s.auditRepo == nil {
		return
	}
	raw, _ := json.Marshal(payload)
	err := s.auditRepo.Log(ctx, AuditLogInput{
		AdminUserID: who.ID,
		Action:      action,
		TargetType:  "loan_application",
		TargetID:    targetID,
		Payload:     raw,
	})
	if err != nil {
		s.logger.Warn("admin audit write failed", "action", action, "target_id", targetID, "err", err)
	}
}

func (s *Service) notify(rec loan.Record, ev ws.Event) {
	if s.notifier == nil || rec.UserID == "" {
		return
	}
	ev.ApplicationID = rec.ID
	ev.Status = string(rec.Status)
	s.notifier.Notify(rec.UserID, ev)
}
