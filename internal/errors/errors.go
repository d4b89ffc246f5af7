package errors

import (
	"errors"
	"fmt"
)

// Exit codes for integration-ctl
const (
	ExitSuccess          = 0
	ExitGeneralError     = 1
	ExitWorkflowNotFound = 2
	ExitCloneFailed      = 3
	ExitBuildFailed      = 4
	ExitComposeFailed    = 5
	ExitConfigError      = 6
	ExitManifestError    = 7
)

// CtlError is the base error type for integration-ctl
type CtlError struct {
	Code    int
	Message string
	Cause   error
}

func (e *CtlError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CtlError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for this error
func (e *CtlError) ExitCode() int {
	return e.Code
}

// New creates a new CtlError
func New(code int, message string) *CtlError {
	return &CtlError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a CtlError
func Wrap(code int, message string, cause error) *CtlError {
	return &CtlError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common error constructors

// WorkflowNotFound returns an error for a missing test workflow
func WorkflowNotFound(name string) *CtlError {
	return New(ExitWorkflowNotFound, fmt.Sprintf("test workflow not found: %s", name))
}

// CloneFailed returns an error for git clone failures
func CloneFailed(repo string, cause error) *CtlError {
	return Wrap(ExitCloneFailed, fmt.Sprintf("failed to clone %s", repo), cause)
}

// BuildFailed returns an error for docker build failures
func BuildFailed(tag string, cause error) *CtlError {
	return Wrap(ExitBuildFailed, fmt.Sprintf("build of %s failed", tag), cause)
}

// ComposeFailed returns an error for docker-compose failures
func ComposeFailed(op string, cause error) *CtlError {
	return Wrap(ExitComposeFailed, fmt.Sprintf("docker-compose %s failed", op), cause)
}

// ComposeExit returns an error carrying the exit code of the test service,
// so the harness exits with the same code the tests did.
func ComposeExit(code int) *CtlError {
	return New(code, fmt.Sprintf("integration tests exited with code %d", code))
}

// ConfigError returns an error for configuration issues
func ConfigError(message string, cause error) *CtlError {
	return Wrap(ExitConfigError, message, cause)
}

// ManifestError returns an error for workflow manifest issues
func ManifestError(message string, cause error) *CtlError {
	return Wrap(ExitManifestError, message, cause)
}

// ValidationError returns an error for input validation failures
func ValidationError(message string) *CtlError {
	return New(ExitGeneralError, message)
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	var ctlErr *CtlError
	if errors.As(err, &ctlErr) {
		return ctlErr.ExitCode()
	}
	return ExitGeneralError
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
