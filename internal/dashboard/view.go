package dashboard

import (
	"github.com/loangraph/portal/internal/domain/loan"
	"github.com/loangraph/portal/internal/session"
)

const topPurposeCount = 3

// Charts holds the three derived views, recomputed from the record set on every build.
type Charts struct {
	Status   []StatusSlice `json:"status"`
	Monthly  []MonthPoint  `json:"monthly"`
	Purposes []PurposeSum  `json:"purposes"`
}

type AdminSummary struct {
	Total        int          `json:"total"`
	Pending      int          `json:"pending"`
	Approved     int          `json:"approved"`
	Rejected     int          `json:"rejected"`
	Disbursed    int          `json:"disbursed"`
	ApprovalRate int          `json:"approvalRate"`
	TopPurposes  []PurposeSum `json:"topPurposes"`
}

type UserSummary struct {
	Greeting     string `json:"greeting"`
	Total        int    `json:"total"`
	ApprovalRate int    `json:"approvalRate"`
}

type Item struct {
	loan.Record
	Actions []loan.Action `json:"actions"`
}

type View struct {
	Title   string        `json:"title"`
	Role    session.Role  `json:"role"`
	Charts  Charts        `json:"charts"`
	Admin   *AdminSummary `json:"admin,omitempty"`
	User    *UserSummary  `json:"user,omitempty"`
	Items   []Item        `json:"items"`
	Filters []string      `json:"statusFilters"`
}

func BuildCharts(records []loan.Record) Charts {
	return Charts{
		Status:   StatusCounts(records).Chart(),
		Monthly:  MonthlySeries(records),
		Purposes: PurposeSums(records),
	}
}

// Build assembles the dashboard for who. Aggregates cover every record the caller was allowed
// to fetch; query and status only narrow the listed items.
func Build(who session.Identity, records []loan.Record, query, status string) View {
	counts := StatusCounts(records)
	sums := PurposeSums(records)
	v := View{
		Role: who.Role,
		Charts: Charts{
			Status:   counts.Chart(),
			Monthly:  MonthlySeries(records),
			Purposes: sums,
		},
		Filters: StatusFilters,
	}
	if who.IsAdmin() {
		v.Title = "Admin Dashboard"
		v.Admin = &AdminSummary{
			Total:        counts.Charted(),
			Pending:      counts.Get(loan.StatusPending),
			Approved:     counts.Get(loan.StatusApproved) + counts.Get(loan.StatusDisbursed),
			Rejected:     counts.Get(loan.StatusRejected),
			Disbursed:    counts.Get(loan.StatusDisbursed),
			ApprovalRate: ApprovalRate(counts),
			TopPurposes:  TopPurposes(sums, topPurposeCount),
		}
	} else {
		v.Title = "My Loan Dashboard"
		v.User = &UserSummary{
			Greeting:     greeting(who),
			Total:        counts.Charted(),
			ApprovalRate: ApprovalRate(counts),
		}
	}
	filtered := Filter(records, query, status)
	v.Items = make([]Item, 0, len(filtered))
	for _, r := range filtered {
		v.Items = append(v.Items, Item{Record: r, Actions: loan.Actions(r.Status, who.Role)})
	}
	return v
}

func greeting(who session.Identity) string {
	if name := who.Label(); name != "" {
		return "Welcome, " + name + "!"
	}
	return "Welcome!"
}
