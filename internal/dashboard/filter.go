package dashboard

import (
	"strings"

	"github.com/loangraph/portal/internal/domain/loan"
)

const StatusAll = "ALL"

// StatusFilters are the options offered by the dashboard's status menu.
var StatusFilters = []string{StatusAll, string(loan.StatusPending), string(loan.StatusApproved), string(loan.StatusRejected), string(loan.StatusDisbursed)}

// Filter keeps records whose name or purpose contains query (case-insensitive) and whose
// status matches status. An empty status or "ALL" matches everything.
func Filter(records []loan.Record, query, status string) []loan.Record {
	q := strings.ToLower(strings.TrimSpace(query))
	status = strings.ToUpper(strings.TrimSpace(status))
	out := make([]loan.Record, 0, len(records))
	for _, r := range records {
		if q != "" && !strings.Contains(strings.ToLower(r.Name), q) && !strings.Contains(strings.ToLower(r.Purpose), q) {
			continue
		}
		if status != "" && status != StatusAll && string(r.Status) != status {
			continue
		}
		out = append(out, r)
	}
	return out
}
