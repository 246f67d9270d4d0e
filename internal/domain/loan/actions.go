package loan

import "github.com/loangraph/portal/internal/session"

type Action string

const (
	ActionApprove       Action = "APPROVE"
	ActionReject        Action = "REJECT"
	ActionDisburse      Action = "DISBURSE"
	ActionViewDocuments Action = "VIEW_DOCUMENTS"
	ActionViewEMIs      Action = "VIEW_EMIS"
	ActionPayEMI        Action = "PAY_EMI"
)

// transitions lists what each role may request for a record in a given status. The backend
// enforces the real state machine; this table only keeps the portal's offers consistent.
var transitions = map[session.Role]map[Status][]Action{
	session.RoleAdmin: {
		StatusPending:   {ActionViewDocuments, ActionApprove, ActionReject},
		StatusApproved:  {ActionViewDocuments, ActionDisburse},
		StatusRejected:  {ActionViewDocuments},
		StatusDisbursed: {ActionViewDocuments},
		StatusClosed:    {ActionViewDocuments},
	},
	session.RoleUser: {
		StatusDisbursed: {ActionViewEMIs},
	},
}

var emiTransitions = map[EMIStatus][]Action{
	EMIPending: {ActionPayEMI},
}

func Actions(status Status, role session.Role) []Action {
	allowed := transitions[role][status]
	out := make([]Action, len(allowed))
	copy(out, allowed)
	return out
}

func Allowed(status Status, role session.Role, action Action) bool {
	for _, a := range transitions[role][status] {
		if a == action {
			return true
		}
	}
	return false
}

func EMIActions(status EMIStatus) []Action {
	allowed := emiTransitions[status]
	out := make([]Action, len(allowed))
	copy(out, allowed)
	return out
}

func EMIAllowed(status EMIStatus, action Action) bool {
	for _, a := range emiTransitions[status] {
		if a == action {
			return true
		}
	}
	return false
}
