package hub

import "fmt"

// AuthError reports a rejected credential (HTTP 401 or 403).
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("spec hub rejected credential (HTTP %d): %s", e.StatusCode, e.Body)
}

// TransientError reports a 5xx response or a timed-out call. Timeout marks
// the cases where the request's real outcome is unknown, as opposed to a
// confirmed server-side failure.
type TransientError struct {
	StatusCode int // zero when the request never completed
	Timeout    bool
	Err        error
}

func (e *TransientError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("spec hub call timed out (outcome unknown): %v", e.Err)
	}
	return fmt.Sprintf("spec hub unavailable (HTTP %d): %v", e.StatusCode, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// APIError reports any other failed hub request, including exhaustion of
// all request-body variants; Err then holds the last underlying error.
type APIError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("spec hub request failed: %v", e.Err)
	}
	return fmt.Sprintf("spec hub returned HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error { return e.Err }
