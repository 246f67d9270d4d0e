package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/loangraph/portal/internal/domain/loan"
	"github.com/loangraph/portal/internal/session"
	"github.com/loangraph/portal/internal/ws"
)

type backendMock struct {
	records   []loan.Record
	listErr   error
	updateErr error
	updates   map[string]loan.Status
	disbursed map[string]float64
}

func (m *backendMock) ListLoans(_ context.Context, scope loan.Scope) ([]loan.Record, error) {
	if !scope.All {
		return nil, errors.New("admin lookups must use the full list")
	}
	return m.records, m.listErr
}

func (m *backendMock) UpdateStatus(_ context.Context, id string, status loan.Status) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if m.updates == nil {
		m.updates = map[string]loan.Status{}
	}
	m.updates[id] = status
	return nil
}

func (m *backendMock) Disburse(_ context.Context, id string, amount float64) error {
	if m.disbursed == nil {
		m.disbursed = map[string]float64{}
	}
	m.disbursed[id] = amount
	return nil
}

type auditRepoMock struct {
	logs []AuditLogInput
	err  error
}

func (m *auditRepoMock) Log(_ context.Context, in AuditLogInput) error {
	m.logs = append(m.logs, in)
	return m.err
}

type notifierMock struct {
	sent map[string][]ws.Event
}

func (m *notifierMock) Notify(userID string, ev ws.Event) {
	if m.sent == nil {
		m.sent = map[string][]ws.Event{}
	}
	m.sent[userID] = append(m.sent[userID], ev)
}

var adminID = session.Identity{ID: "admin-1", Role: session.RoleAdmin}

func fixture() (*backendMock, *auditRepoMock, *notifierMock, *Service) {
	backend := &backendMock{records: []loan.Record{
		{ID: "1", UserID: "u-1", Status: loan.StatusPending, LoanAmount: 50000},
		{ID: "2", UserID: "u-2", Status: loan.StatusApproved, LoanAmount: 250000},
		{ID: "3", UserID: "u-3", Status: loan.StatusRejected, LoanAmount: 1000},
	}}
	audit := &auditRepoMock{}
	notes := &notifierMock{}
	return backend, audit, notes, NewService(backend, audit, notes, nil)
}

func TestApproveAuditsAndNotifies(t *testing.T) {
	backend, audit, notes, svc := fixture()

	rec, err := svc.UpdateStatus(context.Background(), adminID, "1", "approved")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if rec.Status != loan.StatusApproved || backend.updates["1"] != loan.StatusApproved {
		t.Fatalf("expected approved, got %s / %s", rec.Status, backend.updates["1"])
	}
	if len(audit.logs) != 1 || audit.logs[0].Action != "loan_status_updated" || audit.logs[0].AdminUserID != "admin-1" {
		t.Fatalf("unexpected audit logs: %+v", audit.logs)
	}
	got := notes.sent["u-1"]
	if len(got) != 1 || got[0].Type != ws.EventStatusChanged || got[0].ApplicationID != "1" || got[0].Message != "Application approved!" {
		t.Fatalf("unexpected notifications: %+v", got)
	}
}

func TestRejectOnlyPending(t *testing.T) {
	backend, audit, _, svc := fixture()

	_, err := svc.Reject(context.Background(), adminID, "2")
	var rule *RuleError
	if !errors.As(err, &rule) {
		t.Fatalf("expected rule error, got %v", err)
	}
	if rule.UserMessage() != "Only pending applications can be rejected" {
		t.Fatalf("unexpected message %q", rule.UserMessage())
	}
	if len(backend.updates) != 0 || len(audit.logs) != 0 {
		t.Fatalf("refused decision must not reach the backend or audit log")
	}
}

func TestDisburseRequiresApproved(t *testing.T) {
	backend, _, _, svc := fixture()

	_, err := svc.Disburse(context.Background(), adminID, "1")
	var rule *RuleError
	if !errors.As(err, &rule) || rule.UserMessage() != "Loan application must be approved before disbursement" {
		t.Fatalf("expected approval rule error, got %v", err)
	}
	if len(backend.disbursed) != 0 {
		t.Fatalf("backend must not be called")
	}
}

func TestDisburseSendsFullAmount(t *testing.T) {
	backend, audit, notes, svc := fixture()

	rec, err := svc.Disburse(context.Background(), adminID, "2")
	if err != nil {
		t.Fatalf("disburse: %v", err)
	}
	if backend.disbursed["2"] != 250000 || rec.Status != loan.StatusDisbursed {
		t.Fatalf("unexpected disbursement %v %s", backend.disbursed, rec.Status)
	}
	if audit.logs[0].Action != "loan_disbursed" || string(audit.logs[0].Payload) != `{"amount":250000}` {
		t.Fatalf("unexpected audit %+v", audit.logs[0])
	}
	if notes.sent["u-2"][0].Type != ws.EventLoanDisbursed {
		t.Fatalf("expected disbursement notification")
	}
}

func TestNonAdminRefused(t *testing.T) {
	_, _, _, svc := fixture()
	user := session.Identity{ID: "u-1", Role: session.RoleUser}
	if _, err := svc.Approve(context.Background(), user, "1"); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
	if _, err := svc.Disburse(context.Background(), user, "2"); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
}

func TestUnknownApplication(t *testing.T) {
	_, _, _, svc := fixture()
	if _, err := svc.Approve(context.Background(), adminID, "99"); !errors.Is(err, ErrApplicationNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStatusMustBeDecision(t *testing.T) {
	_, _, _, svc := fixture()
	if _, err := svc.UpdateStatus(context.Background(), adminID, "1", "DISBURSED"); err == nil {
		t.Fatalf("expected DISBURSED to be refused as a status update")
	}
	if _, err := svc.UpdateStatus(context.Background(), adminID, "1", "MAYBE"); err == nil {
		t.Fatalf("expected unknown status to fail")
	}
}

func TestAuditFailureDoesNotFailDecision(t *testing.T) {
	backend, audit, _, svc := fixture()
	audit.err = errors.New("db down")
	if _, err := svc.Approve(context.Background(), adminID, "1"); err != nil {
		t.Fatalf("audit failure leaked: %v", err)
	}
	if backend.updates["1"] != loan.StatusApproved {
		t.Fatalf("decision not applied")
	}
}

func TestBackendFailureSurfaces(t *testing.T) {
	backend, audit, notes, svc := fixture()
	backend.updateErr = errors.New("status update failed")
	if _, err := svc.Approve(context.Background(), adminID, "1"); err == nil {
		t.Fatalf("expected backend error")
	}
	if len(audit.logs) != 0 || len(notes.sent) != 0 {
		t.Fatalf("failed decision must not be audited or announced")
	}
}
