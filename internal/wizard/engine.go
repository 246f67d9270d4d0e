// Package wizard implements the four-step loan intake flow: personal info, loan details,
// documents, then review and submit. Each step must validate before the next opens, and a
// successful submission freezes the flow.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/loangraph/portal/internal/score"
	"github.com/loangraph/portal/internal/session"
)

const DefaultMaxAttachmentBytes = 5 << 20

var (
	ErrSubmitted       = errors.New("application already submitted")
	ErrSubmitInFlight  = errors.New("submission already in progress")
	ErrNotReviewStage  = errors.New("submit is only available on the review step")
	ErrAtFirstStage    = errors.New("already at the first step")
	ErrNotSignedIn     = errors.New("caller has no user id")
	ErrAttachmentLarge = errors.New("attachment exceeds size limit")
	ErrAttachmentEmpty = errors.New("attachment is empty")
)

// Application is the single transfer handed to the loan backend on submit.
type Application struct {
	Fields      Fields
	Primary     Attachment
	Secondary   Attachment
	SubmitterID string
}

// Submitter hands a packaged application to the loan backend. The returned value is opaque
// to the wizard.
type Submitter interface {
	SubmitApplication(ctx context.Context, app Application) error
}

type SubmitterFunc func(ctx context.Context, app Application) error

func (f SubmitterFunc) SubmitApplication(ctx context.Context, app Application) error {
	return f(ctx, app)
}

type Options struct {
	Catalog            Catalog
	Deriver            score.Deriver
	MaxAttachmentBytes int64
}

type Engine struct {
	mu sync.Mutex

	catalog  Catalog
	deriver  score.Deriver
	maxBytes int64

	stage       Stage
	fields      Fields
	docs        map[Slot]*Attachment
	preview     map[Slot]bool
	showDetails bool
	lastError   string
	success     string
	submitting  bool
	submitted   bool
}

func New(opts Options) *Engine {
	if opts.Catalog.Professions == nil && opts.Catalog.Purposes == nil && opts.Catalog.Tenures == nil {
		opts.Catalog = DefaultCatalog()
	}
	if opts.Deriver == nil {
		opts.Deriver = score.NewHashScorer()
	}
	if opts.MaxAttachmentBytes <= 0 {
		opts.MaxAttachmentBytes = DefaultMaxAttachmentBytes
	}
	return &Engine{
		catalog:  opts.Catalog,
		deriver:  opts.Deriver,
		maxBytes: opts.MaxAttachmentBytes,
		docs:     map[Slot]*Attachment{},
		preview:  map[Slot]bool{},
	}
}

func (e *Engine) SetField(field Field, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editableLocked(); err != nil {
		return err
	}
	if _, err := ParseField(string(field)); err != nil {
		return err
	}
	e.fields.set(field, value)
	return nil
}

// Attach stores a document. Empty and oversized files are rejected and reported without touching the
// stored attachment.
func (e *Engine) Attach(slot Slot, a Attachment) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editableLocked(); err != nil {
		return err
	}
	if _, err := ParseSlot(string(slot)); err != nil {
		return err
	}
	if a.Size() == 0 {
		e.lastError = "Please select a file to upload"
		return ErrAttachmentEmpty
	}
	if a.Size() > e.maxBytes {
		e.lastError = "File must be under " + SizeLabel(e.maxBytes)
		return ErrAttachmentLarge
	}
	data := make([]byte, len(a.Data))
	copy(data, a.Data)
	a.Data = data
	e.docs[slot] = &a
	return nil
}

func (e *Engine) Detach(slot Slot) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editableLocked(); err != nil {
		return err
	}
	if _, err := ParseSlot(string(slot)); err != nil {
		return err
	}
	delete(e.docs, slot)
	delete(e.preview, slot)
	return nil
}

func (e *Engine) TogglePreview(slot Slot) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editableLocked(); err != nil {
		return err
	}
	if e.docs[slot] == nil {
		return fmt.Errorf("no %s attached", slot.Label())
	}
	e.preview[slot] = !e.preview[slot]
	return nil
}

func (e *Engine) ToggleDetails() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.showDetails = !e.showDetails
}

func (e *Engine) DismissError() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastError = ""
}

// Next advances one step if the current step validates. On failure the step is unchanged
// and the first failing rule becomes lastError.
func (e *Engine) Next() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editableLocked(); err != nil {
		return err
	}
	if e.stage.Last() {
		return ErrNotReviewStage
	}
	if err := Validate(e.stage, e.catalog, e.fields, e.docs); err != nil {
		e.lastError = err.Error()
		return err
	}
	e.lastError = ""
	e.clearPreviewLocked()
	e.stage++
	return nil
}

func (e *Engine) Back() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editableLocked(); err != nil {
		return err
	}
	if e.stage == StagePersonalInfo {
		return ErrAtFirstStage
	}
	e.lastError = ""
	e.clearPreviewLocked()
	e.stage--
	return nil
}

// Submit packages the application and hands it to submitter. Only one submission may be
// outstanding; a call made while another is in flight returns ErrSubmitInFlight and changes
// nothing. A failed hand-off keeps every field and attachment so the caller can retry.
func (e *Engine) Submit(ctx context.Context, who session.Identity, submitter Submitter) error {
	app, err := e.beginSubmit(who)
	if err != nil {
		return err
	}

	err = submitter.SubmitApplication(ctx, app)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.submitting = false
	if err != nil {
		e.lastError = submitFailureMessage(err)
		return err
	}
	e.submitted = true
	e.lastError = ""
	e.success = "Application submitted successfully!"
	return nil
}

func (e *Engine) beginSubmit(who session.Identity) (Application, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.submitted {
		return Application{}, ErrSubmitted
	}
	if e.submitting {
		return Application{}, ErrSubmitInFlight
	}
	if !e.stage.Last() {
		return Application{}, ErrNotReviewStage
	}
	// The review step has no rules of its own; every earlier step is re-checked.
	for _, st := range Stages() {
		if err := Validate(st, e.catalog, e.fields, e.docs); err != nil {
			e.lastError = err.Error()
			return Application{}, err
		}
	}
	if who.ID == "" {
		e.lastError = "Please log in to apply for a loan"
		return Application{}, ErrNotSignedIn
	}
	e.submitting = true
	e.lastError = ""
	e.success = ""
	return Application{
		Fields:      e.fields,
		Primary:     *e.docs[SlotPrimary],
		Secondary:   *e.docs[SlotSecondary],
		SubmitterID: who.ID,
	}, nil
}

func submitFailureMessage(err error) string {
	var msg interface{ UserMessage() string }
	if errors.As(err, &msg) && msg.UserMessage() != "" {
		return msg.UserMessage()
	}
	return "Application failed"
}

// editableLocked refuses changes once submitted and while a submission is outstanding.
func (e *Engine) editableLocked() error {
	if e.submitted {
		return ErrSubmitted
	}
	if e.submitting {
		return ErrSubmitInFlight
	}
	return nil
}

func (e *Engine) clearPreviewLocked() {
	e.showDetails = false
	for k := range e.preview {
		delete(e.preview, k)
	}
}

func (e *Engine) Stage() Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stage
}

func (e *Engine) Submitted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitted
}

// Score is the derived credit score for the identifier currently typed.
func (e *Engine) Score() (int, bool) {
	e.mu.Lock()
	id := e.fields.Identifier
	e.mu.Unlock()
	return e.deriver.Derive(id)
}

func (e *Engine) Catalog() Catalog {
	return e.catalog
}

func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := State{
		StageIndex:  int(e.stage),
		Stage:       e.stage.String(),
		Title:       e.stage.Title(),
		Fields:      e.fields,
		Attachments: map[Slot]AttachmentInfo{},
		LastError:   e.lastError,
		Success:     e.success,
		Submitting:  e.submitting,
		Submitted:   e.submitted,
		CanBack:     e.stage > StagePersonalInfo && !e.submitted && !e.submitting,
	}
	if e.showDetails {
		st.Help = e.stage.Help()
		st.ShowDetails = true
	}
	for slot, a := range e.docs {
		st.Attachments[slot] = AttachmentInfo{Filename: a.Filename, ContentType: a.ContentType, Size: a.Size(), Preview: e.preview[slot]}
	}
	if v, ok := e.deriver.Derive(e.fields.Identifier); ok {
		st.Score = &v
	}
	return st
}
