package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// GenericMessage is shown whenever the backend gave nothing more specific.
const GenericMessage = "Something went wrong. Please try again."

var (
	ErrTransport = errors.New("backend unreachable")
	ErrDecode    = errors.New("unexpected backend response")
)

// FieldError is one entry of a FastAPI-style validation detail array.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a non-2xx backend response with its payload flattened to text.
type APIError struct {
	Status  int
	Message string
	Fields  []FieldError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend status %d: %s", e.Status, e.Message)
}

// ClientError reports whether the backend rejected the request itself (4xx).
func (e *APIError) ClientError() bool {
	return e.Status >= 400 && e.Status < 500
}

// Message returns the human-readable text for any error the client returns.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return GenericMessage
}

func newAPIError(status int, body []byte) *APIError {
	msg, fields := flatten(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	if msg == "" {
		msg = GenericMessage
	}
	return &APIError{Status: status, Message: msg, Fields: fields}
}

// flatten turns a backend error body into one line of text. detail wins over message:
// a string is used as is, an array becomes "field: msg" pairs joined by ", ",
// an object yields its msg, its message, or its raw JSON.
func flatten(body []byte) (string, []FieldError) {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", nil
	}
	detail := bytes.TrimSpace(payload.Detail)
	if len(detail) == 0 || string(detail) == "null" {
		return payload.Message, nil
	}

	switch detail[0] {
	case '"':
		var s string
		if err := json.Unmarshal(detail, &s); err == nil {
			return s, nil
		}
	case '[':
		var items []struct {
			Loc []any  `json:"loc"`
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(detail, &items); err == nil {
			fields := make([]FieldError, 0, len(items))
			parts := make([]string, 0, len(items))
			for _, it := range items {
				field := "field"
				if len(it.Loc) > 1 {
					field = fmt.Sprint(it.Loc[len(it.Loc)-1])
				}
				fields = append(fields, FieldError{Field: field, Message: it.Msg})
				parts = append(parts, field+": "+it.Msg)
			}
			return strings.Join(parts, ", "), fields
		}
	case '{':
		var obj struct {
			Msg     string `json:"msg"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(detail, &obj); err == nil {
			switch {
			case obj.Msg != "":
				return obj.Msg, nil
			case obj.Message != "":
				return obj.Message, nil
			}
			return string(detail), nil
		}
	}
	return payload.Message, nil
}
