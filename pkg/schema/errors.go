package schema

import (
	"errors"
	"fmt"
)

// Error codes for structured error reporting.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeMissingSecrets    = "MISSING_SECRETS"
	ErrCodeRuleViolation     = "RULE_VIOLATION"
	ErrCodeActionUnavailable = "ACTION_UNAVAILABLE"
	ErrCodeDiscoveryLoad     = "DISCOVERY_LOAD_ERROR"
	ErrCodeDiscovery         = "DISCOVERY_ERROR"
	ErrCodeSelfTest          = "SELF_TEST_FAILED"
	ErrCodeExecution         = "EXECUTION_ERROR"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeVault             = "VAULT_ERROR"
	ErrCodeAddonDisabled     = "ADDON_DISABLED"
)

// AddonError is the structured error type for all addon operations.
type AddonError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Unit    string         `json:"unit,omitempty"`
	Cause   error          `json:"-"`
}

func (e *AddonError) Error() string {
	if e.Unit != "" {
		return fmt.Sprintf("[%s] unit %s: %s", e.Code, e.Unit, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AddonError) Unwrap() error {
	return e.Cause
}

// NewError creates a new AddonError.
func NewError(code, message string) *AddonError {
	return &AddonError{Code: code, Message: message}
}

// NewErrorf creates a new AddonError with a formatted message.
func NewErrorf(code, format string, args ...any) *AddonError {
	return &AddonError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithUnit attaches the name of the unit the error refers to.
func (e *AddonError) WithUnit(name string) *AddonError {
	e.Unit = name
	return e
}

// WithCause attaches an underlying cause.
func (e *AddonError) WithCause(err error) *AddonError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *AddonError) WithDetails(details map[string]any) *AddonError {
	e.Details = details
	return e
}

// HasCode reports whether err wraps an AddonError carrying the given code.
func HasCode(err error, code string) bool {
	var ae *AddonError
	return errors.As(err, &ae) && ae.Code == code
}
