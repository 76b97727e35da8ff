package builder

import (
	"errors"
	"fmt"
	"net/http"
)

type (
	// ClientError reports a failed engine HTTP call. StatusCode carries the
	// HTTP status when a response was received; Err carries the transport
	// failure when one was not
	ClientError struct {
		Err        error
		Op         string
		Body       string
		StatusCode int
	}

	// HTTPError allows step handlers to return specific HTTP status codes
	HTTPError struct {
		StatusCode int
		Message    string
	}

	// WebhookError reports a failed async completion delivery
	WebhookError struct {
		Err        error
		URL        string
		StatusCode int
	}
)

var (
	ErrAttributeNotDefined = errors.New("attribute not defined")

	ErrStepRegistration = errors.New("failed to register step after retries")
	ErrHandlerPanic     = errors.New("step handler panicked")
	ErrStartFlow        = errors.New("failed to start flow")
	ErrGetFlowState     = errors.New("failed to get flow state")
)

func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("%s: status %d, body: %s",
			e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// IsConflict returns true when the engine rejected a registration because
// the step already exists
func (e *ClientError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

// NewHTTPError creates a new HTTPError with the given status code and
// message
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
	}
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *WebhookError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to send webhook to %s: %s", e.URL, e.Err)
	}
	return fmt.Sprintf("webhook %s returned status %d", e.URL, e.StatusCode)
}

func (e *WebhookError) Unwrap() error {
	return e.Err
}
