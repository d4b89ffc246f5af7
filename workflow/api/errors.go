package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Errors mapped from jobs API response codes.
var (
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientJobRights is returned for 403 responses: the job's
	// key does not grant access to the resource.
	ErrInsufficientJobRights = errors.New("insufficient job rights")

	// ErrAlreadyFinalized is returned for 409 responses on resources
	// that can no longer be modified.
	ErrAlreadyFinalized = errors.New("already finalized")
)

// ServerError is returned when the jobs API responds with an unexpected
// status or a body that is not JSON.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("jobs api server error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("jobs api server error (%d)", e.StatusCode)
}

// errorFromResponse maps an unsuccessful response to an error. The body
// has already been read.
func errorFromResponse(resp *http.Response, body []byte) error {
	message := string(body)

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		message = payload.Message
	}

	switch resp.StatusCode {
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrInsufficientJobRights, message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, message)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrAlreadyFinalized, message)
	default:
		return &ServerError{StatusCode: resp.StatusCode, Message: message}
	}
}
