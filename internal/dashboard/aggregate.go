// Package dashboard reduces loan records into the views the dashboard charts: status tallies,
// a monthly series and amounts per purpose. Every function is pure and leaves its input
// untouched; callers recompute whenever the record set changes.
package dashboard

import (
	"math"
	"sort"

	"github.com/loangraph/portal/internal/domain/loan"
)

// chartOrder is the fixed order of the status chart. CLOSED is counted but not charted.
var chartOrder = []loan.Status{loan.StatusPending, loan.StatusApproved, loan.StatusRejected, loan.StatusDisbursed}

var statusLabels = map[loan.Status]string{
	loan.StatusPending:   "Pending",
	loan.StatusApproved:  "Approved",
	loan.StatusRejected:  "Rejected",
	loan.StatusDisbursed: "Disbursed",
	loan.StatusClosed:    "Closed",
}

type Counts struct {
	ByStatus map[loan.Status]int
	total    int
}

type StatusSlice struct {
	Status loan.Status `json:"status"`
	Name   string      `json:"name"`
	Value  int         `json:"value"`
}

type MonthPoint struct {
	Month        string `json:"month"`
	Applications int    `json:"applications"`
	Approved     int    `json:"approved"`
}

type PurposeSum struct {
	Purpose string  `json:"purpose"`
	Amount  float64 `json:"amount"`
}

// StatusCounts tallies every record by status, including statuses outside the chart.
func StatusCounts(records []loan.Record) Counts {
	c := Counts{ByStatus: map[loan.Status]int{}}
	for _, s := range chartOrder {
		c.ByStatus[s] = 0
	}
	for _, r := range records {
		c.ByStatus[r.Status]++
		c.total++
	}
	return c
}

func (c Counts) Total() int {
	return c.total
}

// Charted is the number of records in the charted statuses; CLOSED and unknown statuses
// are left out.
func (c Counts) Charted() int {
	n := 0
	for _, s := range chartOrder {
		n += c.ByStatus[s]
	}
	return n
}

func (c Counts) Get(s loan.Status) int {
	return c.ByStatus[s]
}

// Chart returns the charted statuses in fixed order, omitting zero counts.
func (c Counts) Chart() []StatusSlice {
	out := make([]StatusSlice, 0, len(chartOrder))
	for _, s := range chartOrder {
		if v := c.ByStatus[s]; v > 0 {
			out = append(out, StatusSlice{Status: s, Name: statusLabels[s], Value: v})
		}
	}
	return out
}

// ApprovalRate is round(100 * (approved + disbursed) / charted), or 0 with nothing charted.
func ApprovalRate(c Counts) int {
	charted := c.Charted()
	if charted == 0 {
		return 0
	}
	approved := c.ByStatus[loan.StatusApproved] + c.ByStatus[loan.StatusDisbursed]
	return int(math.Round(100 * float64(approved) / float64(charted)))
}

// MonthKey is the YYYY-MM bucket of the record's creation time in UTC.
func MonthKey(r loan.Record) string {
	return r.CreatedAt.UTC().Format("2006-01")
}

// MonthlySeries buckets records by creation month, oldest first.
func MonthlySeries(records []loan.Record) []MonthPoint {
	byMonth := map[string]*MonthPoint{}
	for _, r := range records {
		key := MonthKey(r)
		p, ok := byMonth[key]
		if !ok {
			p = &MonthPoint{Month: key}
			byMonth[key] = p
		}
		p.Applications++
		if r.Status == loan.StatusApproved || r.Status == loan.StatusDisbursed {
			p.Approved++
		}
	}
	out := make([]MonthPoint, 0, len(byMonth))
	for _, p := range byMonth {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// PurposeSums totals loan amounts per purpose in order of first appearance.
func PurposeSums(records []loan.Record) []PurposeSum {
	index := map[string]int{}
	out := make([]PurposeSum, 0)
	for _, r := range records {
		i, ok := index[r.Purpose]
		if !ok {
			i = len(out)
			index[r.Purpose] = i
			out = append(out, PurposeSum{Purpose: r.Purpose})
		}
		out[i].Amount += float64(r.LoanAmount)
	}
	return out
}

// TopPurposes returns up to n purposes by descending amount. Ties keep first-seen order.
func TopPurposes(sums []PurposeSum, n int) []PurposeSum {
	out := make([]PurposeSum, len(sums))
	copy(out, sums)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
