package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for form boundaries and the other fields of an upload.
const multipartOverhead = 64 << 10

func RequestBodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// UploadLimit caps a multipart body at one attachment plus form overhead. Attachment size
// itself is checked by the handler so the caller gets the friendly message.
func UploadLimit(maxAttachment int64) gin.HandlerFunc {
	if maxAttachment <= 0 {
		return RequestBodyLimit(0)
	}
	return RequestBodyLimit(maxAttachment*2 + multipartOverhead)
}
