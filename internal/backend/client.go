// Package backend talks to the loan service that owns applications, disbursements, repayments
// and documents. Every call is a single attempt; failures surface to the caller once.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/loangraph/portal/internal/domain/loan"
	"github.com/loangraph/portal/internal/wizard"
)

const maxErrorBody = 64 << 10

var ErrMissingID = errors.New("missing id")

// APIError is a non-2xx answer from the loan service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend status %d: %s", e.StatusCode, e.Message)
}

// UserMessage is the text the service meant for the applicant, if any.
func (e *APIError) UserMessage() string {
	return e.Message
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("missing BACKEND_BASE_URL")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid BACKEND_BASE_URL: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{baseURL: baseURL, httpClient: &http.Client{Timeout: timeout}}, nil
}

// ListLoans returns every application for ScopeAll, otherwise the scoped user's.
func (c *Client) ListLoans(ctx context.Context, scope loan.Scope) ([]loan.Record, error) {
	path := "/loans/all"
	if !scope.All {
		if strings.TrimSpace(scope.UserID) == "" {
			return nil, ErrMissingID
		}
		path = "/loans/user/" + url.PathEscape(scope.UserID)
	}
	return getList[loan.Record](ctx, c, path)
}

// ApplyLoan posts the application form with both attachments as multipart.
func (c *Client) ApplyLoan(ctx context.Context, app wizard.Application) error {
	if strings.TrimSpace(app.SubmitterID) == "" {
		return ErrMissingID
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"name", app.Fields.Name},
		{"profession", app.Fields.Profession},
		{"purpose", app.Fields.Purpose},
		{"loanAmount", app.Fields.LoanAmount},
		{"panCard", app.Fields.Identifier},
		{"tenureInMonths", app.Fields.TenureMonths},
		{"userId", app.SubmitterID},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}
	if err := writeFile(mw, string(wizard.SlotPrimary), app.Primary); err != nil {
		return err
	}
	if err := writeFile(mw, string(wizard.SlotSecondary), app.Secondary); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/loans/apply", nil, &buf, mw.FormDataContentType(), nil)
}

// SubmitApplication lets the client serve as the wizard's submitter.
func (c *Client) SubmitApplication(ctx context.Context, app wizard.Application) error {
	return c.ApplyLoan(ctx, app)
}

func (c *Client) UpdateStatus(ctx context.Context, applicationID string, status loan.Status) error {
	if strings.TrimSpace(applicationID) == "" {
		return ErrMissingID
	}
	q := url.Values{"status": {strings.ToUpper(string(status))}}
	return c.do(ctx, http.MethodPut, "/loans/update-status/"+url.PathEscape(applicationID), q, nil, "", nil)
}

func (c *Client) Disburse(ctx context.Context, applicationID string, amount float64) error {
	if strings.TrimSpace(applicationID) == "" {
		return ErrMissingID
	}
	q := url.Values{"amount": {strconv.FormatFloat(amount, 'f', -1, 64)}}
	return c.do(ctx, http.MethodPost, "/disbursements/disburse/"+url.PathEscape(applicationID), q, nil, "", nil)
}

func (c *Client) ListEMIs(ctx context.Context, loanID string) ([]loan.EMI, error) {
	if strings.TrimSpace(loanID) == "" {
		return nil, ErrMissingID
	}
	return getList[loan.EMI](ctx, c, "/repayments/loan/"+url.PathEscape(loanID))
}

func (c *Client) PayEMI(ctx context.Context, emiID string) error {
	if strings.TrimSpace(emiID) == "" {
		return ErrMissingID
	}
	return c.do(ctx, http.MethodPost, "/repayments/pay/"+url.PathEscape(emiID), nil, nil, "", nil)
}

func (c *Client) ListUserDocuments(ctx context.Context, userID string) ([]loan.Document, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingID
	}
	return getList[loan.Document](ctx, c, "/documents/user/"+url.PathEscape(userID))
}

func (c *Client) ListApplicationDocuments(ctx context.Context, applicationID string) ([]loan.Document, error) {
	if strings.TrimSpace(applicationID) == "" {
		return nil, ErrMissingID
	}
	return getList[loan.Document](ctx, c, "/loans/documents/application/"+url.PathEscape(applicationID))
}

func (c *Client) UploadDocument(ctx context.Context, userID string, category loan.DocumentCategory, file wizard.Attachment) error {
	if strings.TrimSpace(userID) == "" {
		return ErrMissingID
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := writeFile(mw, "file", file); err != nil {
		return err
	}
	if err := mw.WriteField("userId", userID); err != nil {
		return err
	}
	if err := mw.WriteField("documentType", string(category)); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/documents/upload", nil, &buf, mw.FormDataContentType(), nil)
}

func (c *Client) DeleteDocument(ctx context.Context, documentID string) error {
	if strings.TrimSpace(documentID) == "" {
		return ErrMissingID
	}
	return c.do(ctx, http.MethodDelete, "/documents/"+url.PathEscape(documentID), nil, nil, "", nil)
}

// Ping checks the service answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/loans/all", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// getList fetches a JSON array. Anything other than an array reads as an empty list.
func getList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, nil, "", &raw); err != nil {
		return nil, err
	}
	out := []T{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return out, nil
	}
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

func writeFile(mw *multipart.Writer, field string, file wizard.Attachment) error {
	name := file.Filename
	if name == "" {
		name = field + ".pdf"
	}
	part, err := mw.CreateFormFile(field, name)
	if err != nil {
		return err
	}
	_, err = part.Write(file.Data)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// errorMessage pulls "message" or "error" out of a JSON body, or uses a plain-text body as is.
func errorMessage(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if raw[0] == '{' {
		if err := json.Unmarshal(raw, &payload); err == nil {
			if payload.Message != "" {
				return payload.Message
			}
			return payload.Error
		}
	}
	var s string
	if raw[0] == '"' && json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}
