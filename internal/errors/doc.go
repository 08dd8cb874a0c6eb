// Package apperrors defines the structured error types of calcpatch. They
// separate failures of the patch lifecycle (install, activation) from
// failures local to a single substitute call (validation) and from
// teardown warnings that are only ever logged.
//
// Error Wrapping Guidelines:
// This package follows Go's error wrapping conventions using fmt.Errorf with %w.
// Types that carry a cause implement Unwrap() to support errors.Is() and errors.As().
package apperrors
