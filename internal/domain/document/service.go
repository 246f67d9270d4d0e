// Package document manages the applicant's own document library (identity proofs,
// statements) outside the loan wizard.
package document

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/loangraph/portal/internal/domain/loan"
	"github.com/loangraph/portal/internal/session"
	"github.com/loangraph/portal/internal/wizard"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrNotSignedIn = errors.New("caller has no user id")
)

// InputError carries the message shown next to the upload form.
type InputError struct {
	Message string
}

func (e *InputError) Error() string       { return e.Message }
func (e *InputError) UserMessage() string { return e.Message }

type Backend interface {
	ListUserDocuments(ctx context.Context, userID string) ([]loan.Document, error)
	UploadDocument(ctx context.Context, userID string, category loan.DocumentCategory, file wizard.Attachment) error
	DeleteDocument(ctx context.Context, documentID string) error
}

type Service struct {
	backend  Backend
	maxBytes int64
	logger   *slog.Logger
}

func NewService(backend Backend, maxBytes int64, logger *slog.Logger) *Service {
	if maxBytes <= 0 {
		maxBytes = wizard.DefaultMaxAttachmentBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: backend, maxBytes: maxBytes, logger: logger}
}

func (s *Service) List(ctx context.Context, who session.Identity) ([]loan.Document, error) {
	if who.ID == "" {
		return nil, ErrNotSignedIn
	}
	return s.backend.ListUserDocuments(ctx, who.ID)
}

// Upload checks the form the way the upload dialog does, then stores the file.
func (s *Service) Upload(ctx context.Context, who session.Identity, category string, file wizard.Attachment) error {
	if who.ID == "" {
		return ErrNotSignedIn
	}
	if len(file.Data) == 0 || strings.TrimSpace(category) == "" {
		return &InputError{Message: "Please select a file and document type"}
	}
	cat, err := loan.ParseDocumentCategory(category)
	if err != nil {
		return &InputError{Message: "Select a document type from the list"}
	}
	if file.Size() > s.maxBytes {
		return &InputError{Message: "File must be under " + wizard.SizeLabel(s.maxBytes)}
	}
	if err := s.backend.UploadDocument(ctx, who.ID, cat, file); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "document uploaded", "user_id", who.ID, "category", cat, "bytes", file.Size())
	return nil
}

// Delete removes a document only if it is in the caller's own library.
func (s *Service) Delete(ctx context.Context, who session.Identity, documentID string) error {
	docs, err := s.List(ctx, who)
	if err != nil {
		return err
	}
	documentID = strings.TrimSpace(documentID)
	for _, d := range docs {
		if d.ID == documentID && documentID != "" {
			return s.backend.DeleteDocument(ctx, documentID)
		}
	}
	return ErrNotFound
}
