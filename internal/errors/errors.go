package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Exit codes returned by the init entry point and the command line.
const (
	ExitSuccess         = 0   // Indicates successful execution.
	ExitErrorGeneric    = 1   // Indicates a generic error.
	ExitErrorInstall    = 2   // Indicates a target could not be installed.
	ExitErrorActivation = 3   // Indicates the installed set could not be switched live.
	ExitErrorConfig     = 4   // Indicates a configuration error.
	ExitErrorCanceled   = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as an invalid
// flag value or an unknown activation strategy.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// InstallError reports that a target could not be resolved or intercepted.
// It is fatal to the whole patch set: every install performed before it is
// rolled back.
type InstallError struct {
	// Object is the name of the object (module) holding the target.
	Object string
	// Target is the name of the function that failed to install.
	Target string
	// Cause is the error returned by the interception facility.
	Cause error
}

// Error returns a message naming the failed target.
func (e InstallError) Error() string {
	return fmt.Sprintf("install %s/%s: %v", e.Object, e.Target, e.Cause)
}

// Unwrap returns the facility error.
func (e InstallError) Unwrap() error { return e.Cause }

// ActivationError reports that the installed set could not be switched
// live.
type ActivationError struct {
	// Cause is the error returned by the interception facility, joined
	// with any rollback failures.
	Cause error
}

// Error returns the activation failure message.
func (e ActivationError) Error() string {
	return fmt.Sprintf("activate patch set: %v", e.Cause)
}

// Unwrap returns the underlying cause.
func (e ActivationError) Unwrap() error { return e.Cause }

// ValidationError represents malformed call arguments handed to a
// substitute. It is local to one call and never reaches the lifecycle.
type ValidationError struct {
	// Field is the name of the argument that failed validation.
	Field string
	// Message explains the validation failure.
	Message string
}

// Error returns a formatted message describing the validation failure.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
}

// TeardownWarning describes a deactivate or uninstall request against
// something that is not active. Such requests are no-ops; the warning is
// logged and counted, never returned to the caller of Disable.
type TeardownWarning struct {
	// Target names the entry or the patch set concerned.
	Target string
	// Reason explains why the request was a no-op.
	Reason string
}

// Error returns the warning text.
func (e TeardownWarning) Error() string {
	return fmt.Sprintf("teardown of %s skipped: %s", e.Target, e.Reason)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// It returns nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ExitCode maps a lifecycle error to the status returned by the init entry
// point.
func ExitCode(err error) int {
	var (
		installErr    InstallError
		activationErr ActivationError
		configErr     ConfigError
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &installErr):
		return ExitErrorInstall
	case errors.As(err, &activationErr):
		return ExitErrorActivation
	case errors.As(err, &configErr):
		return ExitErrorConfig
	case IsContextError(err):
		return ExitErrorCanceled
	default:
		return ExitErrorGeneric
	}
}
