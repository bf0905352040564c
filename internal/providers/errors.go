package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"taskbounty/portal/internal/constants"
)

// ProviderError is the normalized failure of a TaskBounty API call.
type ProviderError struct {
	Code    string
	Status  int
	Message string
	Details string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Message returns the text to show the user for err: the server-provided message
// when there is one, otherwise a generic fallback.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	return constants.MsgGenericFailure
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Status
	}
	return 0
}

// IsUnauthorized reports whether the backend rejected the session token.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// IsCanceled reports whether err stems from a cancelled or superseded request.
func IsCanceled(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Code == constants.ErrCodeCanceled {
		return true
	}
	return errors.Is(err, context.Canceled)
}

// errorBody covers the shapes the backend uses for failures.
type errorBody struct {
	Message string          `json:"message"`
	Msg     string          `json:"msg"`
	Error   json.RawMessage `json:"error"`
	Errors  []struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	} `json:"errors"`
}

// serverMessage extracts the human-readable message from an error body, if any.
func serverMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	switch {
	case eb.Message != "":
		return eb.Message
	case eb.Msg != "":
		return eb.Msg
	}
	if len(eb.Error) > 0 {
		var s string
		if err := json.Unmarshal(eb.Error, &s); err == nil && s != "" {
			return s
		}
	}
	for _, e := range eb.Errors {
		if e.Msg != "" {
			return e.Msg
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return ""
}

// buildHTTPError creates appropriate error based on status code
func buildHTTPError(statusCode int, endpoint string, body []byte) *ProviderError {
	code := constants.ErrCodeRejected
	switch {
	case statusCode == http.StatusUnauthorized:
		code = constants.ErrCodeUnauthorized
	case statusCode == http.StatusForbidden:
		code = constants.ErrCodeForbidden
	case statusCode == http.StatusNotFound:
		code = constants.ErrCodeNotFound
	case statusCode == http.StatusTooManyRequests:
		code = constants.ErrCodeRateLimited
	case statusCode >= 500:
		code = constants.ErrCodeServerError
	}

	msg := serverMessage(body)
	if msg == "" {
		msg = constants.GetErrorMessage(code)
	}

	return &ProviderError{
		Code:    code,
		Status:  statusCode,
		Message: msg,
		Details: strings.TrimSpace(fmt.Sprintf("%s: %s", endpoint, truncate(string(body), 512))),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
