package policy

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrPolicyFailure is wrapped by every PolicyError.
var ErrPolicyFailure = errors.New("cache policy failure")

// PolicyError is a failure that aborts the request with StatusCode.
// Message is sent to the client as the response body.
type PolicyError struct {
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *PolicyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cache policy error (status %d): %s: %v", e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("cache policy error (status %d): %s", e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *PolicyError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrPolicyFailure, e.Err}
	}
	return []error{ErrPolicyFailure}
}

func newPolicyError(message string, err error) *PolicyError {
	return &PolicyError{
		StatusCode: http.StatusInternalServerError,
		Message:    message,
		Err:        err,
	}
}

func errCacheNotDefined(name string) *PolicyError {
	return newPolicyError(fmt.Sprintf("No cache has been defined with name %s", name), nil)
}

func errCacheNotFound(name string) *PolicyError {
	return newPolicyError(fmt.Sprintf("No cache named [ %s ] has been found.", name), nil)
}
