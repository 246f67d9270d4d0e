package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loangraph/portal/internal/backend"
	"github.com/loangraph/portal/internal/config"
	admindomain "github.com/loangraph/portal/internal/domain/admin"
	"github.com/loangraph/portal/internal/domain/document"
	"github.com/loangraph/portal/internal/domain/repayment"
	"github.com/loangraph/portal/internal/http/handlers"
	"github.com/loangraph/portal/internal/http/middleware"
	"github.com/loangraph/portal/internal/observability"
	"github.com/loangraph/portal/internal/score"
	"github.com/loangraph/portal/internal/session"
	"github.com/loangraph/portal/internal/wizard"
	"github.com/loangraph/portal/internal/ws"
	"github.com/stretchr/testify/require"
)

// loanService fakes the external loan backend.
type loanService struct {
	mu        sync.Mutex
	loans     string
	failLoans bool
	applied   map[string]string
	statuses  []string
}

func (s *loanService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case r.URL.Path == "/api/loans/all" || strings.HasPrefix(r.URL.Path, "/api/loans/user/"):
		if s.failLoans {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"message":"database unavailable"}`)
			return
		}
		_, _ = io.WriteString(w, s.loans)
	case r.URL.Path == "/api/loans/apply":
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.applied = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			s.applied[k] = v[0]
		}
		for k := range r.MultipartForm.File {
			s.applied[k] = "file"
		}
		w.WriteHeader(http.StatusCreated)
	case strings.HasPrefix(r.URL.Path, "/api/loans/update-status/"):
		s.statuses = append(s.statuses, r.URL.Query().Get("status"))
	case strings.HasPrefix(r.URL.Path, "/api/documents/user/"):
		_, _ = io.WriteString(w, `[]`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type testApp struct {
	t       *testing.T
	router  *gin.Engine
	service *loanService
	cookies map[string]*http.Cookie
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := &loanService{loans: `[]`}
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)

	cfg := config.Config{Env: "test", MaxAttachmentBytes: 1 << 10, WizardIdleTTL: time.Minute}
	logger := observability.NewLogger("test", "error")
	client, err := backend.NewClient(srv.URL+"/api", time.Second)
	require.NoError(t, err)

	sessions := middleware.Sessions{Cookies: session.CookieConfig{TTL: time.Hour}}
	catalog := wizard.DefaultCatalog()
	registry := wizard.NewRegistry(wizard.Options{Catalog: catalog, Deriver: score.NewHashScorer(), MaxAttachmentBytes: cfg.MaxAttachmentBytes}, cfg.WizardIdleTTL)
	notifier := ws.NewNotifier(ws.NewHub(), logger)

	router := NewRouter(cfg, logger, Dependencies{
		Checks:           map[string]handlers.Pinger{"backend": client},
		Sessions:         sessions,
		SessionHandler:   handlers.NewSessionHandler(sessions),
		WizardHandler:    handlers.NewWizardHandler(registry, catalog, client, notifier, cfg.MaxAttachmentBytes, logger),
		DashboardHandler: handlers.NewDashboardHandler(client, logger),
		LoanAdminHandler: handlers.NewLoanAdminHandler(admindomain.NewService(client, admindomain.NewLogAuditRepository(logger), notifier, logger), client, logger),
		EMIHandler:       handlers.NewEMIHandler(repayment.NewService(client, notifier, logger), logger),
		DocumentHandler:  handlers.NewDocumentHandler(document.NewService(client, cfg.MaxAttachmentBytes, logger), cfg.MaxAttachmentBytes, logger),
	})
	return &testApp{t: t, router: router, service: svc, cookies: map[string]*http.Cookie{}}
}

func (a *testApp) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, ck := range a.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(a.cookies, ck.Name)
			continue
		}
		a.cookies[ck.Name] = ck
	}
	return w
}

func (a *testApp) json(method, path, body string) *httptest.ResponseRecorder {
	return a.do(method, path, strings.NewReader(body), "application/json")
}

func (a *testApp) signIn(user string) {
	a.t.Helper()
	w := a.json(http.MethodPost, "/v1/session/profile", `{"user":`+user+`}`)
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthAndMeta(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodGet, "/ready", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", decode(t, w)["backend"])

	w = app.do(http.MethodGet, "/v1/meta", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode(t, w)["stages"], 4)
}

func TestGuardRedirects(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/v1/dashboard", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "/login", decode(t, w)["redirect"])

	app.signIn(`{"id":1,"name":"Asha","role":"USER"}`)
	w = app.do(http.MethodPut, "/v1/loans/7/status?status=APPROVED", nil, "")
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "/", decode(t, w)["redirect"])

	w = app.do(http.MethodGet, "/v1/session?role=admin", nil, "")
	require.Equal(t, "REDIRECT_HOME", decode(t, w)["outcome"])

	w = app.do(http.MethodPost, "/v1/session/logout", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	w = app.do(http.MethodGet, "/v1/dashboard", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWizardFlowSubmitsApplication(t *testing.T) {
	app := newTestApp(t)
	app.signIn(`{"id":42,"name":"Asha","email":"asha@example.com","role":"USER"}`)

	w := app.json(http.MethodPost, "/v1/wizard", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["id"].(string)
	base := "/v1/wizard/" + id

	w = app.json(http.MethodPost, base+"/next", "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Equal(t, "Name is required", decode(t, w)["message"])

	w = app.json(http.MethodPatch, base+"/fields", `{"name":"Asha","profession":"Software Engineer"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = app.json(http.MethodPost, base+"/next", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.json(http.MethodPatch, base+"/fields", `{"purpose":"Home Purchase","loanAmount":"500","panCard":"abcde1234f","tenureInMonths":"12"}`)
	require.Equal(t, http.StatusOK, w.Code)
	state := decode(t, w)["state"].(map[string]any)
	require.Equal(t, float64(355), state["creditScore"])

	w = app.json(http.MethodPost, base+"/next", "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Equal(t, "Loan amount must be at least ₹1,000", decode(t, w)["message"])

	app.json(http.MethodPatch, base+"/fields", `{"loanAmount":"1000"}`)
	w = app.json(http.MethodPost, base+"/next", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.upload(base+"/attachments/pfAccountPdf", make([]byte, 2<<10))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Equal(t, "File must be under 1024 bytes", decode(t, w)["message"])

	for _, slot := range []string{"pfAccountPdf", "salarySlip"} {
		w = app.upload(base+"/attachments/"+slot, []byte("%PDF-1.4"))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w = app.json(http.MethodPost, base+"/next", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.json(http.MethodPost, base+"/submit", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, "/dashboard", decode(t, w)["redirect"])

	app.service.mu.Lock()
	applied := app.service.applied
	app.service.mu.Unlock()
	require.Equal(t, "ABCDE1234F", applied["panCard"])
	require.Equal(t, "42", applied["userId"])
	require.Equal(t, "file", applied["salarySlip"])

	w = app.json(http.MethodPost, base+"/submit", "")
	require.Equal(t, http.StatusConflict, w.Code)
}

func (a *testApp) upload(path string, data []byte) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "doc.pdf")
	require.NoError(a.t, err)
	_, _ = part.Write(data)
	require.NoError(a.t, mw.Close())
	return a.do(http.MethodPut, path, &buf, mw.FormDataContentType())
}

func TestWizardIsPrivateToOwner(t *testing.T) {
	app := newTestApp(t)
	app.signIn(`{"id":1,"name":"Asha","role":"USER"}`)
	id := decode(t, app.json(http.MethodPost, "/v1/wizard", ""))["id"].(string)

	app.signIn(`{"id":2,"name":"Ravi","role":"USER"}`)
	w := app.do(http.MethodGet, "/v1/wizard/"+id, nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminDashboardAndDecisions(t *testing.T) {
	app := newTestApp(t)
	app.service.loans = `[
		{"applicationId":1,"userId":5,"name":"Asha","purpose":"Home Loan","loanAmount":500000,"status":"APPROVED","createdAt":"2024-03-10T10:00:00"},
		{"applicationId":2,"userId":6,"name":"Ravi","purpose":"Car Loan","loanAmount":300000,"status":"DISBURSED","createdAt":"2024-01-05T09:00:00"},
		{"applicationId":3,"userId":7,"name":"Meena","purpose":"Home Loan","loanAmount":200000,"status":"PENDING","createdAt":"2024-03-21T12:00:00"}
	]`
	app.signIn(`{"id":"admin-1","name":"Root","role":"ADMIN"}`)

	w := app.do(http.MethodGet, "/v1/dashboard?status=pending", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	dash := decode(t, w)["dashboard"].(map[string]any)
	require.Equal(t, "Admin Dashboard", dash["title"])
	require.Equal(t, float64(67), dash["admin"].(map[string]any)["approvalRate"])
	require.Len(t, dash["items"], 1)

	w = app.do(http.MethodPost, "/v1/loans/3/disburse", nil, "")
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "Loan application must be approved before disbursement", decode(t, w)["message"])

	w = app.do(http.MethodPut, "/v1/loans/3/status?status=approved", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, []string{"APPROVED"}, app.service.statuses)

	w = app.do(http.MethodPut, "/v1/loans/3/status?status=CLOSED", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBackendFailureIsReportedOnce(t *testing.T) {
	app := newTestApp(t)
	app.service.failLoans = true
	app.signIn(`{"id":1,"name":"Asha","role":"USER"}`)

	w := app.do(http.MethodGet, "/v1/dashboard", nil, "")
	require.Equal(t, http.StatusBadGateway, w.Code)
	body := decode(t, w)
	require.Equal(t, "list_loans_failed", body["error"])
	require.Equal(t, "database unavailable", body["message"])
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t)
	w := app.do(http.MethodGet, "/nope", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}
