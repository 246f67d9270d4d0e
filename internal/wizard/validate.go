package wizard

import (
	"math"
	"strconv"
	"strings"

	"github.com/loangraph/portal/internal/score"
)

const MinLoanAmount = 1000

type ValidationError struct {
	Stage   Stage
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type validator func(c Catalog, f Fields, docs map[Slot]*Attachment) string

var validators = [stageCount]validator{
	validatePersonalInfo,
	validateLoanDetails,
	validateDocuments,
	func(Catalog, Fields, map[Slot]*Attachment) string { return "" },
}

// Validate runs the rules for stage and reports the first one that fails.
func Validate(stage Stage, c Catalog, f Fields, docs map[Slot]*Attachment) error {
	if !stage.valid() {
		return &ValidationError{Stage: stage, Message: "Unknown step"}
	}
	if msg := validators[stage](c, f, docs); msg != "" {
		return &ValidationError{Stage: stage, Message: msg}
	}
	return nil
}

func validatePersonalInfo(c Catalog, f Fields, _ map[Slot]*Attachment) string {
	if strings.TrimSpace(f.Name) == "" {
		return "Name is required"
	}
	if f.Profession == "" {
		return "Profession is required"
	}
	if !c.HasProfession(f.Profession) {
		return "Select a profession from the list"
	}
	return ""
}

func validateLoanDetails(c Catalog, f Fields, _ map[Slot]*Attachment) string {
	if f.Purpose == "" {
		return "Purpose is required"
	}
	if !c.HasPurpose(f.Purpose) {
		return "Select a loan purpose from the list"
	}
	if amount, ok := parseAmount(f.LoanAmount); !ok || amount < MinLoanAmount {
		return "Loan amount must be at least ₹1,000"
	}
	if strings.TrimSpace(f.Identifier) == "" {
		return "PAN card is required"
	}
	if !score.ValidIdentifier(f.Identifier) {
		return "Enter a valid PAN card (e.g. ABCDE1234F)"
	}
	if strings.TrimSpace(f.TenureMonths) == "" {
		return "Please select a loan tenure"
	}
	if !c.HasTenure(f.TenureMonths) {
		return "Select a loan tenure from the list"
	}
	return ""
}

func validateDocuments(_ Catalog, _ Fields, docs map[Slot]*Attachment) string {
	if docs[SlotPrimary] == nil {
		return "PF Account Statement PDF is required"
	}
	if docs[SlotSecondary] == nil {
		return "Salary Slip PDF is required"
	}
	return ""
}

func parseAmount(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
