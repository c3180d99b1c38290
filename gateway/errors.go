package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ankitmishra23v/micro-fit/internal/apperrors"
)

// User-facing fallback messages
const (
	unknownErrMsg  = "An unknown server error has occurred or the server may be unreachable."
	serverErrMsg   = "Unfortunately, something went wrong. Please try again later."
	canceledErrMsg = "Request canceled."
)

// RequestError reports a non-2xx response from the backend. Message is the
// user-facing text (the backend's "message" field when present, else a
// generic fallback); BackendMessage is the raw backend text, empty when the
// backend supplied none.
type RequestError struct {
	Status         int
	Message        string
	BackendMessage string
	Body           []byte
}

func (e *RequestError) Error() string { return e.Message }

// backendMessage pulls the conventional {"message": "..."} field out of an
// error response body.
func backendMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}

// classifyStatus turns a non-2xx response into a RequestError
func classifyStatus(status int, body []byte) error {
	raw := backendMessage(body)
	if status >= http.StatusInternalServerError {
		return &RequestError{Status: status, Message: serverErrMsg, BackendMessage: raw, Body: body}
	}
	message := raw
	if message == "" {
		message = unknownErrMsg
	}
	return &RequestError{Status: status, Message: message, BackendMessage: raw, Body: body}
}

// classifyTransport turns a transport-level failure into a NetworkError
func classifyTransport(ctx context.Context, err error) error {
	if ctx.Err() == context.Canceled {
		return &apperrors.NetworkError{Message: canceledErrMsg, Err: err}
	}
	return &apperrors.NetworkError{Message: unknownErrMsg, Err: err}
}
