package loan

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/loangraph/portal/internal/session"
	"github.com/stretchr/testify/require"
)

func TestRecordDecodesBackendShapes(t *testing.T) {
	raw := `[
	  {"applicationId": 17, "name": "Asha", "purpose": "Education", "loanAmount": "250000",
	   "creditScore": 712, "status": "approved", "profession": "Teacher", "createdAt": "2024-03-05T10:15:00"},
	  {"id": "a-2", "name": "Ravi", "purpose": "Business", "loanAmount": 1200.5,
	   "status": "PENDING", "applicationDate": "2024-02-01"}
	]`
	var out []Record
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	require.Len(t, out, 2)

	require.Equal(t, "17", out[0].ID)
	require.Equal(t, Amount(250000), out[0].LoanAmount)
	require.Equal(t, StatusApproved, out[0].Status)
	require.Equal(t, time.Date(2024, 3, 5, 10, 15, 0, 0, time.UTC), out[0].CreatedAt)

	require.Equal(t, "a-2", out[1].ID)
	require.Equal(t, Amount(1200.5), out[1].LoanAmount)
	require.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), out[1].CreatedAt)
}

func TestAmountNonNumericIsZero(t *testing.T) {
	var a Amount
	require.NoError(t, json.Unmarshal([]byte(`"abc"`), &a))
	require.Equal(t, Amount(0), a)
	require.Equal(t, float64(0), ParseAmount(""))
	require.Equal(t, 1000.0, ParseAmount(" 1000 "))
}

func TestTransitionTable(t *testing.T) {
	require.True(t, Allowed(StatusPending, session.RoleAdmin, ActionApprove))
	require.True(t, Allowed(StatusPending, session.RoleAdmin, ActionReject))
	require.False(t, Allowed(StatusPending, session.RoleAdmin, ActionDisburse))
	require.True(t, Allowed(StatusApproved, session.RoleAdmin, ActionDisburse))
	require.False(t, Allowed(StatusDisbursed, session.RoleAdmin, ActionDisburse))
	require.False(t, Allowed(StatusPending, session.RoleUser, ActionApprove))
	require.Equal(t, []Action{ActionViewEMIs}, Actions(StatusDisbursed, session.RoleUser))
	require.Empty(t, Actions(StatusClosed, session.RoleUser))
}

func TestActionsReturnsCopy(t *testing.T) {
	a := Actions(StatusPending, session.RoleAdmin)
	a[0] = ActionPayEMI
	require.Equal(t, ActionViewDocuments, Actions(StatusPending, session.RoleAdmin)[0])
}

func TestEMIActions(t *testing.T) {
	require.Equal(t, []Action{ActionPayEMI}, EMIActions(EMIPending))
	require.Empty(t, EMIActions(EMIPaid))
	require.False(t, EMIAllowed(EMIOverdue, ActionPayEMI))
}

func TestParseStatusAndCategory(t *testing.T) {
	s, err := ParseStatus(" rejected ")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, s)
	_, err = ParseStatus("LOST")
	require.Error(t, err)

	c, err := ParseDocumentCategory("bank_statement")
	require.NoError(t, err)
	require.Equal(t, DocumentBankStatement, c)
	_, err = ParseDocumentCategory("PASSPORT")
	require.Error(t, err)
}
