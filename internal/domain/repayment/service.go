// Package repayment shows an applicant the EMI schedule of a disbursed loan and pays
// instalments from it.
package repayment

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/loangraph/portal/internal/domain/loan"
	"github.com/loangraph/portal/internal/session"
	"github.com/loangraph/portal/internal/ws"
)

var (
	ErrLoanNotFound = errors.New("loan not found")
	ErrEMINotFound  = errors.New("emi not found")
)

// RuleError is a request the transition table refuses.
type RuleError struct {
	Message string
}

func (e *RuleError) Error() string       { return e.Message }
func (e *RuleError) UserMessage() string { return e.Message }

type Backend interface {
	ListLoans(ctx context.Context, scope loan.Scope) ([]loan.Record, error)
	ListEMIs(ctx context.Context, loanID string) ([]loan.EMI, error)
	PayEMI(ctx context.Context, emiID string) error
}

type Notifier interface {
	Notify(userID string, ev ws.Event)
}

type Service struct {
	backend  Backend
	notifier Notifier
	logger   *slog.Logger
}

func NewService(backend Backend, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: backend, notifier: notifier, logger: logger}
}

// Schedule returns the EMIs of one of the caller's own disbursed loans.
func (s *Service) Schedule(ctx context.Context, who session.Identity, loanID string) ([]loan.EMI, error) {
	if _, err := s.ownedLoan(ctx, who, loanID); err != nil {
		return nil, err
	}
	return s.backend.ListEMIs(ctx, loanID)
}

// Pay settles one pending EMI and returns the refreshed schedule.
func (s *Service) Pay(ctx context.Context, who session.Identity, loanID, emiID string) ([]loan.EMI, error) {
	rec, err := s.ownedLoan(ctx, who, loanID)
	if err != nil {
		return nil, err
	}
	emis, err := s.backend.ListEMIs(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	emiID = strings.TrimSpace(emiID)
	var target *loan.EMI
	for i := range emis {
		if emis[i].ID == emiID {
			target = &emis[i]
			break
		}
	}
	if target == nil {
		return nil, ErrEMINotFound
	}
	if !loan.EMIAllowed(target.Status, loan.ActionPayEMI) {
		return nil, &RuleError{Message: "Only pending EMIs can be paid"}
	}
	if err := s.backend.PayEMI(ctx, target.ID); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "emi paid", "loan_id", rec.ID, "emi_id", target.ID, "emi_number", target.EMINumber)
	if s.notifier != nil {
		s.notifier.Notify(who.ID, ws.Event{Type: ws.EventEMIPaid, ApplicationID: rec.ID, Message: "EMI paid successfully!"})
	}

	refreshed, err := s.backend.ListEMIs(ctx, rec.ID)
	if err != nil {
		// the payment went through; fall back to the schedule we had
		s.logger.WarnContext(ctx, "emi refresh failed", "loan_id", rec.ID, "err", err)
		target.Status = loan.EMIPaid
		return emis, nil
	}
	return refreshed, nil
}

func (s *Service) ownedLoan(ctx context.Context, who session.Identity, loanID string) (loan.Record, error) {
	loanID = strings.TrimSpace(loanID)
	if loanID == "" || who.ID == "" {
		return loan.Record{}, ErrLoanNotFound
	}
	records, err := s.backend.ListLoans(ctx, loan.ScopeUser(who.ID))
	if err != nil {
		return loan.Record{}, err
	}
	for _, r := range records {
		if r.ID != loanID {
			continue
		}
		if !loan.Allowed(r.Status, who.Role, loan.ActionViewEMIs) {
			return loan.Record{}, &RuleError{Message: "EMIs are available once the loan is disbursed"}
		}
		return r, nil
	}
	return loan.Record{}, ErrLoanNotFound
}
