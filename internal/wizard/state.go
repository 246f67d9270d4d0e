package wizard

import (
	"fmt"
	"strings"
)

type Field string

// Field names match the multipart keys the loan backend expects.
const (
	FieldName       Field = "name"
	FieldProfession Field = "profession"
	FieldPurpose    Field = "purpose"
	FieldLoanAmount Field = "loanAmount"
	FieldIdentifier Field = "panCard"
	FieldTenure     Field = "tenureInMonths"
)

func ParseField(raw string) (Field, error) {
	f := Field(strings.TrimSpace(raw))
	switch f {
	case FieldName, FieldProfession, FieldPurpose, FieldLoanAmount, FieldIdentifier, FieldTenure:
		return f, nil
	}
	return "", fmt.Errorf("unknown field %q", raw)
}

// Fields holds values as typed; numeric coercion happens during validation.
type Fields struct {
	Name         string `json:"name"`
	Profession   string `json:"profession"`
	Purpose      string `json:"purpose"`
	LoanAmount   string `json:"loanAmount"`
	Identifier   string `json:"panCard"`
	TenureMonths string `json:"tenureInMonths"`
}

func (f *Fields) set(field Field, value string) {
	switch field {
	case FieldName:
		f.Name = value
	case FieldProfession:
		f.Profession = value
	case FieldPurpose:
		f.Purpose = value
	case FieldLoanAmount:
		f.LoanAmount = value
	case FieldIdentifier:
		f.Identifier = strings.ToUpper(value)
	case FieldTenure:
		f.TenureMonths = value
	}
}

type Slot string

const (
	SlotPrimary   Slot = "pfAccountPdf"
	SlotSecondary Slot = "salarySlip"
)

func ParseSlot(raw string) (Slot, error) {
	s := Slot(strings.TrimSpace(raw))
	switch s {
	case SlotPrimary, SlotSecondary:
		return s, nil
	}
	return "", fmt.Errorf("unknown attachment slot %q", raw)
}

func (s Slot) Label() string {
	if s == SlotPrimary {
		return "PF Account Statement"
	}
	return "Salary Slip"
}

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// SizeLabel renders an attachment limit for messages: whole mebibytes as "5MB", anything else
// in bytes.
func SizeLabel(n int64) string {
	if n > 0 && n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}

func (a *Attachment) Size() int64 {
	if a == nil {
		return 0
	}
	return int64(len(a.Data))
}

// AttachmentInfo describes a stored attachment without its bytes.
type AttachmentInfo struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size"`
	Preview     bool   `json:"preview"`
}

// State is a read-only copy of a wizard for rendering.
type State struct {
	StageIndex  int                     `json:"stageIndex"`
	Stage       string                  `json:"stage"`
	Title       string                  `json:"title"`
	Help        string                  `json:"help,omitempty"`
	Fields      Fields                  `json:"fields"`
	Attachments map[Slot]AttachmentInfo `json:"attachments"`
	Score       *int                    `json:"creditScore,omitempty"`
	LastError   string                  `json:"lastError,omitempty"`
	Success     string                  `json:"success,omitempty"`
	Submitting  bool                    `json:"submitting"`
	Submitted   bool                    `json:"submitted"`
	CanBack     bool                    `json:"canBack"`
	ShowDetails bool                    `json:"showDetails"`
}
