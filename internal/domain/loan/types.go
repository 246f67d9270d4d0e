package loan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusDisbursed Status = "DISBURSED"
	StatusClosed    Status = "CLOSED"
)

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusDisbursed, StatusClosed:
		return s, nil
	}
	return "", fmt.Errorf("unknown loan status %q", raw)
}

// Scope selects whose records the backend returns: everything, or one user's.
type Scope struct {
	All    bool
	UserID string
}

func ScopeAll() Scope { return Scope{All: true} }

func ScopeUser(id string) Scope { return Scope{UserID: id} }

func (s Scope) String() string {
	if s.All {
		return "all"
	}
	return "user:" + s.UserID
}

type EMIStatus string

// EMI status transitions are owned by the backend; the portal only renders them.
const (
	EMIPending EMIStatus = "PENDING"
	EMIPaid    EMIStatus = "PAID"
	EMIOverdue EMIStatus = "OVERDUE"
)

type DocumentCategory string

const (
	DocumentAadhar        DocumentCategory = "AADHAR"
	DocumentPAN           DocumentCategory = "PAN"
	DocumentBankStatement DocumentCategory = "BANK_STATEMENT"
	DocumentSalarySlip    DocumentCategory = "SALARY_SLIP"
	DocumentOther         DocumentCategory = "OTHER"
)

var documentCategories = []DocumentCategory{
	DocumentAadhar, DocumentPAN, DocumentBankStatement, DocumentSalarySlip, DocumentOther,
}

func DocumentCategories() []DocumentCategory {
	out := make([]DocumentCategory, len(documentCategories))
	copy(out, documentCategories)
	return out
}

func ParseDocumentCategory(raw string) (DocumentCategory, error) {
	c := DocumentCategory(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range documentCategories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown document category %q", raw)
}

// Amount accepts both JSON numbers and numeric strings; anything else decodes as zero.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*a = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(ParseAmount(s))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		*a = 0
		return nil
	}
	*a = Amount(f)
	return nil
}

// ParseAmount coerces a typed amount to a number. Non-numeric input yields 0.
func ParseAmount(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

type Record struct {
	ID           string    `json:"applicationId"`
	UserID       string    `json:"userId,omitempty"`
	Name         string    `json:"name"`
	Purpose      string    `json:"purpose"`
	LoanAmount   Amount    `json:"loanAmount"`
	CreditScore  int       `json:"creditScore"`
	Status       Status    `json:"status"`
	Profession   string    `json:"profession"`
	PanCard      string    `json:"panCard,omitempty"`
	TenureMonths int       `json:"tenureInMonths,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type wireRecord struct {
	ApplicationID json.RawMessage `json:"applicationId"`
	ID            json.RawMessage `json:"id"`
	UserID        json.RawMessage `json:"userId"`
	Name          string          `json:"name"`
	Purpose       string          `json:"purpose"`
	LoanAmount    Amount          `json:"loanAmount"`
	CreditScore   Amount          `json:"creditScore"`
	Status        string          `json:"status"`
	Profession    string          `json:"profession"`
	PanCard       string          `json:"panCard"`
	TenureMonths  Amount          `json:"tenureInMonths"`
	CreatedAt     string          `json:"createdAt"`
	AppliedAt     string          `json:"applicationDate"`
}

func (r *Record) UnmarshalJSON(b []byte) error {
	var w wireRecord
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	id := rawID(w.ApplicationID)
	if id == "" {
		id = rawID(w.ID)
	}
	created := w.CreatedAt
	if strings.TrimSpace(created) == "" {
		created = w.AppliedAt
	}
	ts, _ := ParseTimestamp(created)

	*r = Record{
		ID:           id,
		UserID:       rawID(w.UserID),
		Name:         w.Name,
		Purpose:      w.Purpose,
		LoanAmount:   w.LoanAmount,
		CreditScore:  int(w.CreditScore),
		Status:       Status(strings.ToUpper(strings.TrimSpace(w.Status))),
		Profession:   w.Profession,
		PanCard:      w.PanCard,
		TenureMonths: int(w.TenureMonths),
		CreatedAt:    ts,
	}
	return nil
}

// rawID renders numeric and string ids the same way.
func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return strings.TrimSpace(s)
		}
		return ""
	}
	return string(raw)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts RFC3339 and the zone-less layouts the backend emits. Zone-less
// values are read as UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

type EMI struct {
	ID        string    `json:"id"`
	LoanID    string    `json:"applicationId,omitempty"`
	EMINumber int       `json:"emiNumber"`
	DueDate   string    `json:"dueDate"`
	EMIAmount Amount    `json:"emiAmount"`
	Status    EMIStatus `json:"status"`
}

type wireEMI struct {
	ID            json.RawMessage `json:"id"`
	ApplicationID json.RawMessage `json:"applicationId"`
	EMINumber     int             `json:"emiNumber"`
	DueDate       string          `json:"dueDate"`
	EMIAmount     Amount          `json:"emiAmount"`
	Status        string          `json:"status"`
}

func (e *EMI) UnmarshalJSON(b []byte) error {
	var w wireEMI
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*e = EMI{
		ID:        rawID(w.ID),
		LoanID:    rawID(w.ApplicationID),
		EMINumber: w.EMINumber,
		DueDate:   w.DueDate,
		EMIAmount: w.EMIAmount,
		Status:    EMIStatus(strings.ToUpper(strings.TrimSpace(w.Status))),
	}
	return nil
}

type Document struct {
	ID         string           `json:"id"`
	FileName   string           `json:"fileName"`
	Category   DocumentCategory `json:"documentType"`
	UploadedAt string           `json:"uploadedAt,omitempty"`
	URL        string           `json:"fileUrl,omitempty"`
}

type wireDocument struct {
	DocumentID json.RawMessage `json:"documentId"`
	ID         json.RawMessage `json:"id"`
	FileName   string          `json:"fileName"`
	Category   string          `json:"documentType"`
	UploadedAt string          `json:"uploadedAt"`
	URL        string          `json:"fileUrl"`
}

func (d *Document) UnmarshalJSON(b []byte) error {
	var w wireDocument
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	id := rawID(w.DocumentID)
	if id == "" {
		id = rawID(w.ID)
	}
	*d = Document{
		ID:         id,
		FileName:   w.FileName,
		Category:   DocumentCategory(strings.ToUpper(strings.TrimSpace(w.Category))),
		UploadedAt: w.UploadedAt,
		URL:        w.URL,
	}
	return nil
}
