package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/loangraph/portal/internal/domain/document"
	"github.com/loangraph/portal/internal/domain/loan"
	"github.com/loangraph/portal/internal/session"
	"github.com/loangraph/portal/internal/wizard"
)

type DocumentService interface {
	List(ctx context.Context, who session.Identity) ([]loan.Document, error)
	Upload(ctx context.Context, who session.Identity, category string, file wizard.Attachment) error
	Delete(ctx context.Context, who session.Identity, documentID string) error
}

type DocumentHandler struct {
	documents DocumentService
	maxBytes  int64
	logger    *slog.Logger
}

func NewDocumentHandler(documents DocumentService, maxBytes int64, logger *slog.Logger) *DocumentHandler {
	if maxBytes <= 0 {
		maxBytes = wizard.DefaultMaxAttachmentBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentHandler{documents: documents, maxBytes: maxBytes, logger: logger}
}

func (h *DocumentHandler) List(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	docs, err := h.documents.List(c.Request.Context(), who)
	if err != nil {
		h.documentError(c, "list_documents", "Failed to load your documents", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": docs, "categories": loan.DocumentCategories()})
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var file wizard.Attachment
	if fh, err := c.FormFile("file"); err == nil {
		src, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_file"})
			return
		}
		defer src.Close()
		data, err := io.ReadAll(io.LimitReader(src, h.maxBytes+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_file"})
			return
		}
		file = wizard.Attachment{Filename: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data}
	}
	if err := h.documents.Upload(c.Request.Context(), who, c.PostForm("documentType"), file); err != nil {
		h.documentError(c, "upload_document", "Failed to upload document", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "message": "Document uploaded successfully!"})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	if err := h.documents.Delete(c.Request.Context(), who, strings.TrimSpace(c.Param("id"))); err != nil {
		h.documentError(c, "delete_document", "Failed to delete document", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Document deleted!"})
}

func (h *DocumentHandler) documentError(c *gin.Context, op, fallback string, err error) {
	var in *document.InputError
	switch {
	case errors.As(err, &in):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation_failed", "message": in.Message})
	case errors.Is(err, document.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "document_not_found"})
	case errors.Is(err, document.ErrNotSignedIn):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "redirect": session.LoginPath})
	default:
		backendFailed(c, h.logger, op, fallback, err)
	}
}
