package http

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"chitti-admin/internal/backend"
	"chitti-admin/internal/forms"
	"chitti-admin/internal/table"
	"chitti-admin/internal/views"
)

const badStatusMessage = "Status must be pending, approved or rejected"

func writeError(c *gin.Context, code int, errCode, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": errCode, "message": message})
}

// backendStatus maps a backend failure to the status and text the admin sees. The
// backend's own 4xx answers pass through; everything else is a 502.
func backendStatus(err error) (int, string) {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.ClientError() {
		return apiErr.Status, apiErr.Message
	}
	return 502, backend.GenericMessage
}

func writeBackendError(c *gin.Context, err error) {
	log.Printf("backend: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	code, msg := backendStatus(err)
	if code == 502 {
		writeError(c, code, "backend_unavailable", msg)
		return
	}
	body := gin.H{"error": "backend_rejected", "message": msg}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
		fields := make(map[string]string, len(apiErr.Fields))
		for _, f := range apiErr.Fields {
			if _, ok := fields[f.Field]; !ok {
				fields[f.Field] = f.Message
			}
		}
		body["fields"] = fields
	}
	c.AbortWithStatusJSON(code, body)
}

// writeFormError reports a blocked form: 422 with per-field messages, or 400 for a body
// that is not a JSON object.
func writeFormError(c *gin.Context, err error) {
	var fe forms.Errors
	switch {
	case errors.As(err, &fe):
		c.AbortWithStatusJSON(422, gin.H{"error": "validation_failed", "message": "Please correct the highlighted fields", "fields": fe})
	case errors.Is(err, forms.ErrMalformed):
		writeError(c, 400, "invalid_request", err.Error())
	default:
		log.Printf("form: %s: %v", c.Request.URL.Path, err)
		writeError(c, 500, "internal_error", backend.GenericMessage)
	}
}

func writeQueryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, views.ErrBadFilter), errors.Is(err, table.ErrUnknownField):
		writeError(c, 400, "invalid_query", err.Error())
	default:
		log.Printf("list: %s: %v", c.Request.URL.Path, err)
		writeError(c, 500, "internal_error", backend.GenericMessage)
	}
}
