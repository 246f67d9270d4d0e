package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/loangraph/portal/internal/score"
	"github.com/loangraph/portal/internal/session"
	"github.com/loangraph/portal/internal/wizard"
	"github.com/loangraph/portal/internal/ws"
)

// AdminNotifier is satisfied by *ws.Notifier.
type AdminNotifier interface {
	NotifyAdmins(ev ws.Event)
}

type WizardHandler struct {
	registry  *wizard.Registry
	catalog   wizard.Catalog
	submitter wizard.Submitter
	notifier  AdminNotifier
	maxBytes  int64
	logger    *slog.Logger
}

func NewWizardHandler(registry *wizard.Registry, catalog wizard.Catalog, submitter wizard.Submitter, notifier AdminNotifier, maxBytes int64, logger *slog.Logger) *WizardHandler {
	if maxBytes <= 0 {
		maxBytes = wizard.DefaultMaxAttachmentBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WizardHandler{registry: registry, catalog: catalog, submitter: submitter, notifier: notifier, maxBytes: maxBytes, logger: logger}
}

func (h *WizardHandler) Catalog(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog)
}

func (h *WizardHandler) Create(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id, engine := h.registry.Create(who.ID)
	c.JSON(http.StatusCreated, gin.H{"id": id, "state": engine.Snapshot()})
}

func (h *WizardHandler) Get(c *gin.Context) {
	engine, ok := h.engine(c)
	if !ok {
		return
	}
	h.state(c, engine)
}

// SetFields applies a partial form update such as {"name":"Asha","loanAmount":"25000"}.
func (h *WizardHandler) SetFields(c *gin.Context) {
	engine, ok := h.engine(c)
	if !ok {
		return
	}
	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	fields := make(map[wizard.Field]string, len(req))
	for name, value := range req {
		f, err := wizard.ParseField(name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_field", "field": name})
			return
		}
		fields[f] = value
	}
	for f, value := range fields {
		if err := engine.SetField(f, value); err != nil {
			h.engineError(c, engine, err)
			return
		}
	}
	h.state(c, engine)
}

func (h *WizardHandler) Attach(c *gin.Context) {
	engine, ok := h.engine(c)
	if !ok {
		return
	}
	slot, err := wizard.ParseSlot(c.Param("slot"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_slot"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_file"})
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_file"})
		return
	}
	defer src.Close()
	// one byte past the limit is enough for the engine to refuse the file
	data, err := io.ReadAll(io.LimitReader(src, h.maxBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_file"})
		return
	}
	if err := engine.Attach(slot, wizard.Attachment{
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Data:        data,
	}); err != nil {
		h.engineError(c, engine, err)
		return
	}
	h.state(c, engine)
}

func (h *WizardHandler) Detach(c *gin.Context) {
	engine, ok := h.engine(c)
	if !ok {
		return
	}
	slot, err := wizard.ParseSlot(c.Param("slot"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_slot"})
		return
	}
	if err := engine.Detach(slot); err != nil {
		h.engineError(c, engine, err)
		return
	}
	h.state(c, engine)
}

func (h *WizardHandler) Next(c *gin.Context) {
	engine, ok := h.engine(c)
	if !ok {
		return
	}
	if err := engine.Next(); err != nil {
		h.engineError(c, engine, err)
		return
	}
	h.state(c, engine)
}

func (h *WizardHandler) Back(c *gin.Context) {
	engine, ok := h.engine(c)
	if !ok {
		return
	}
	if err := engine.Back(); err != nil {
		h.engineError(c, engine, err)
		return
	}
	h.state(c, engine)
}

func (h *WizardHandler) Submit(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	engine, ok := h.engine(c)
	if !ok {
		return
	}
	if err := engine.Submit(c.Request.Context(), who, h.submitter); err != nil {
		if wizardRefusal(err) {
			h.engineError(c, engine, err)
			return
		}
		st := engine.Snapshot()
		h.logger.WarnContext(c.Request.Context(), "backend call failed", "op", "apply_loan", "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "apply_loan_failed", "message": st.LastError, "state": st})
		return
	}

	st := engine.Snapshot()
	h.logger.InfoContext(c.Request.Context(), "application submitted",
		"user_id", who.ID,
		"pan_fingerprint", score.Fingerprint(st.Fields.Identifier),
		"purpose", st.Fields.Purpose,
	)
	if h.notifier != nil {
		h.notifier.NotifyAdmins(ws.Event{
			Type:    ws.EventApplicationSubmitted,
			Status:  "PENDING",
			Message: "New application from " + applicantLabel(who, st.Fields.Name),
		})
	}
	c.JSON(http.StatusOK, gin.H{"state": st, "redirect": "/dashboard"})
}

func (h *WizardHandler) Discard(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	if err := h.registry.Discard(c.Param("id"), who.ID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "wizard_not_found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *WizardHandler) engine(c *gin.Context) (*wizard.Engine, bool) {
	who, ok := caller(c)
	if !ok {
		return nil, false
	}
	engine, err := h.registry.Get(strings.TrimSpace(c.Param("id")), who.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "wizard_not_found"})
		return nil, false
	}
	return engine, true
}

func (h *WizardHandler) state(c *gin.Context, engine *wizard.Engine) {
	c.JSON(http.StatusOK, gin.H{"state": engine.Snapshot()})
}

// engineError maps wizard failures. The body always carries the current state so the form
// can render lastError.
func (h *WizardHandler) engineError(c *gin.Context, engine *wizard.Engine, err error) {
	st := engine.Snapshot()
	var v *wizard.ValidationError
	switch {
	case errors.As(err, &v):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation_failed", "message": v.Message, "state": st})
	case errors.Is(err, wizard.ErrAttachmentLarge), errors.Is(err, wizard.ErrAttachmentEmpty):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation_failed", "message": st.LastError, "state": st})
	case errors.Is(err, wizard.ErrNotSignedIn):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "redirect": session.LoginPath, "message": st.LastError})
	case errors.Is(err, wizard.ErrSubmitted), errors.Is(err, wizard.ErrSubmitInFlight),
		errors.Is(err, wizard.ErrNotReviewStage), errors.Is(err, wizard.ErrAtFirstStage):
		c.JSON(http.StatusConflict, gin.H{"error": "invalid_step", "message": err.Error(), "state": st})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error(), "state": st})
	}
}

// wizardRefusal reports whether err came from the wizard itself rather than the submitter.
func wizardRefusal(err error) bool {
	var v *wizard.ValidationError
	return errors.As(err, &v) ||
		errors.Is(err, wizard.ErrNotSignedIn) ||
		errors.Is(err, wizard.ErrSubmitted) ||
		errors.Is(err, wizard.ErrSubmitInFlight) ||
		errors.Is(err, wizard.ErrNotReviewStage)
}

func applicantLabel(who session.Identity, formName string) string {
	if name := strings.TrimSpace(formName); name != "" {
		return name
	}
	if l := who.Label(); l != "" {
		return l
	}
	return "user " + who.ID
}
