package dashboard

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/loangraph/portal/internal/domain/loan"
	"github.com/loangraph/portal/internal/session"
	"github.com/stretchr/testify/require"
)

func rec(id, name, purpose string, amount float64, status loan.Status, created string) loan.Record {
	at, err := time.Parse(time.RFC3339, created)
	if err != nil {
		panic(err)
	}
	return loan.Record{ID: id, Name: name, Purpose: purpose, LoanAmount: loan.Amount(amount), Status: status, CreatedAt: at}
}

func sample() []loan.Record {
	return []loan.Record{
		rec("1", "Asha", "Home", 500000, loan.StatusApproved, "2024-03-10T10:00:00Z"),
		rec("2", "Ravi", "Car", 300000, loan.StatusDisbursed, "2024-01-05T09:00:00Z"),
		rec("3", "Meena", "Home", 200000, loan.StatusPending, "2024-03-21T12:00:00Z"),
		rec("4", "Kiran", "Education", 100000, loan.StatusRejected, "2024-02-02T08:00:00Z"),
		rec("5", "Dev", "Business", 50000, loan.StatusClosed, "2023-12-31T23:30:00Z"),
	}
}

func TestStatusCountsSumToTotal(t *testing.T) {
	c := StatusCounts(sample())
	sum := 0
	for _, n := range c.ByStatus {
		sum += n
	}
	require.Equal(t, 5, c.Total())
	require.Equal(t, c.Total(), sum)
	require.Equal(t, 1, c.Get(loan.StatusClosed))
}

func TestChartFixedOrderOmitsZeros(t *testing.T) {
	records := []loan.Record{
		rec("1", "a", "Home", 1, loan.StatusDisbursed, "2024-01-01T00:00:00Z"),
		rec("2", "b", "Home", 1, loan.StatusPending, "2024-01-01T00:00:00Z"),
		rec("3", "c", "Home", 1, loan.StatusPending, "2024-01-01T00:00:00Z"),
		rec("4", "d", "Home", 1, loan.StatusClosed, "2024-01-01T00:00:00Z"),
	}
	want := []StatusSlice{
		{Status: loan.StatusPending, Name: "Pending", Value: 2},
		{Status: loan.StatusDisbursed, Name: "Disbursed", Value: 1},
	}
	if diff := cmp.Diff(want, StatusCounts(records).Chart()); diff != "" {
		t.Fatalf("chart mismatch (-want +got):\n%s", diff)
	}
}

func TestApprovalRate(t *testing.T) {
	records := []loan.Record{
		rec("1", "a", "Home", 1, loan.StatusApproved, "2024-01-01T00:00:00Z"),
		rec("2", "b", "Home", 1, loan.StatusDisbursed, "2024-01-01T00:00:00Z"),
		rec("3", "c", "Home", 1, loan.StatusPending, "2024-01-01T00:00:00Z"),
	}
	require.Equal(t, 67, ApprovalRate(StatusCounts(records)))
	require.Equal(t, 0, ApprovalRate(StatusCounts(nil)))
}

func TestApprovalRateLeavesClosedOut(t *testing.T) {
	records := []loan.Record{{Status: loan.StatusDisbursed}, {Status: loan.StatusClosed}}
	c := StatusCounts(records)
	require.Equal(t, 2, c.Total())
	require.Equal(t, 1, c.Charted())
	require.Equal(t, 100, ApprovalRate(c))
	require.Equal(t, 0, ApprovalRate(StatusCounts([]loan.Record{{Status: loan.StatusClosed}})))

	v := Build(session.Identity{ID: "1", Role: session.RoleUser}, records, "", "")
	require.Equal(t, 100, v.User.ApprovalRate)
	require.Equal(t, 1, v.User.Total)
}

func TestMonthlySeriesSortedFromUnorderedInput(t *testing.T) {
	want := []MonthPoint{
		{Month: "2023-12", Applications: 1, Approved: 0},
		{Month: "2024-01", Applications: 1, Approved: 1},
		{Month: "2024-02", Applications: 1, Approved: 0},
		{Month: "2024-03", Applications: 2, Approved: 1},
	}
	if diff := cmp.Diff(want, MonthlySeries(sample())); diff != "" {
		t.Fatalf("series mismatch (-want +got):\n%s", diff)
	}
}

func TestMonthKeyUsesUTC(t *testing.T) {
	r := rec("1", "a", "Home", 1, loan.StatusPending, "2024-04-01T02:00:00+05:30")
	require.Equal(t, "2024-03", MonthKey(r))
}

func TestPurposeSumsFirstSeenOrder(t *testing.T) {
	want := []PurposeSum{
		{Purpose: "Home", Amount: 700000},
		{Purpose: "Car", Amount: 300000},
		{Purpose: "Education", Amount: 100000},
		{Purpose: "Business", Amount: 50000},
	}
	if diff := cmp.Diff(want, PurposeSums(sample())); diff != "" {
		t.Fatalf("purpose sums mismatch (-want +got):\n%s", diff)
	}
}

func TestTopPurposesStableAndNonMutating(t *testing.T) {
	sums := []PurposeSum{{"A", 10}, {"B", 30}, {"C", 10}, {"D", 5}}
	top := TopPurposes(sums, 3)
	require.Equal(t, []PurposeSum{{"B", 30}, {"A", 10}, {"C", 10}}, top)
	require.Equal(t, "A", sums[0].Purpose)
	require.Len(t, TopPurposes(sums[:1], 3), 1)
}

func TestAggregatesOfEmptySet(t *testing.T) {
	require.Empty(t, StatusCounts(nil).Chart())
	require.Empty(t, MonthlySeries(nil))
	require.Empty(t, PurposeSums(nil))
}

func TestFilter(t *testing.T) {
	records := sample()

	require.Len(t, Filter(records, "", ""), 5)
	require.Len(t, Filter(records, "", StatusAll), 5)

	got := Filter(records, "home", "")
	require.Len(t, got, 2)

	got = Filter(records, "  RAVI ", "disbursed")
	require.Len(t, got, 1)
	require.Equal(t, "2", got[0].ID)

	require.Empty(t, Filter(records, "home", string(loan.StatusRejected)))
}

func TestBuildAdminView(t *testing.T) {
	admin := session.Identity{ID: "9", DisplayName: "Root", Role: session.RoleAdmin}
	v := Build(admin, sample(), "", string(loan.StatusPending))

	require.Equal(t, "Admin Dashboard", v.Title)
	require.Nil(t, v.User)
	require.NotNil(t, v.Admin)
	require.Equal(t, 4, v.Admin.Total)
	require.Equal(t, 2, v.Admin.Approved)
	require.Equal(t, 1, v.Admin.Disbursed)
	require.Equal(t, 50, v.Admin.ApprovalRate)
	require.Len(t, v.Admin.TopPurposes, 3)
	require.Equal(t, "Home", v.Admin.TopPurposes[0].Purpose)

	// filtering narrows items but never the aggregates
	require.Len(t, v.Items, 1)
	require.Equal(t, []loan.Action{loan.ActionViewDocuments, loan.ActionApprove, loan.ActionReject}, v.Items[0].Actions)
	require.Len(t, v.Charts.Monthly, 4)
}

func TestBuildUserView(t *testing.T) {
	user := session.Identity{ID: "1", Email: "asha@example.com", Role: session.RoleUser}
	v := Build(user, sample()[:2], "", "")

	require.Equal(t, "My Loan Dashboard", v.Title)
	require.Nil(t, v.Admin)
	require.Equal(t, "Welcome, asha@example.com!", v.User.Greeting)
	require.Equal(t, 100, v.User.ApprovalRate)
	require.Empty(t, v.Items[0].Actions)
	require.Equal(t, []loan.Action{loan.ActionViewEMIs}, v.Items[1].Actions)
}

func TestGreetingWithoutName(t *testing.T) {
	require.Equal(t, "Welcome!", greeting(session.Identity{ID: "1"}))
}
