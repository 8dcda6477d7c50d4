package csr

import (
	"errors"
	"fmt"
)

// ConfigError reports an engine configuration that can never produce a
// meaningful search. It is returned by New and never mid-run.
type ConfigError struct {
	// Code identifies the error category.
	Code ConfigErrorCode

	// Message is a human-readable description.
	Message string
}

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	// ErrCodeInvalidWindow indicates a quality window with min > max.
	ErrCodeInvalidWindow ConfigErrorCode = "INVALID_WINDOW"

	// ErrCodeUnknownMetric indicates a metric outside the known variants.
	ErrCodeUnknownMetric ConfigErrorCode = "UNKNOWN_METRIC"

	// ErrCodeUnknownUndecided indicates an unknown undecided-case policy.
	ErrCodeUnknownUndecided ConfigErrorCode = "UNKNOWN_UNDECIDED"

	// ErrCodeMissingGeometry indicates a policy that needs cross sections
	// but no geometry providing them.
	ErrCodeMissingGeometry ConfigErrorCode = "MISSING_GEOMETRY"

	// ErrCodeInvalidMaxInteractions indicates MaxNInteractions < 1.
	ErrCodeInvalidMaxInteractions ConfigErrorCode = "INVALID_MAX_INTERACTIONS"
)

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConfigError reports whether err is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
