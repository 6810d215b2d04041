package schema

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddonError_Error(t *testing.T) {
	err := NewError(ErrCodeValidation, "bad input")
	assert.Equal(t, "[VALIDATION_ERROR] bad input", err.Error())

	err = NewErrorf(ErrCodeExecution, "handler failed: %d", 3).WithUnit("demo_action")
	assert.Equal(t, "[EXECUTION_ERROR] unit demo_action: handler failed: 3", err.Error())
}

func TestAddonError_Unwrap(t *testing.T) {
	cause := errors.New("disk on fire")
	err := NewError(ErrCodeDiscovery, "scan failed").WithCause(cause)

	assert.ErrorIs(t, err, cause)
}

func TestAddonError_WithDetails(t *testing.T) {
	err := NewError(ErrCodeMissingSecrets, "missing").
		WithDetails(map[string]any{"missing": []string{"db_password"}})

	require.NotNil(t, err.Details)
	assert.Equal(t, []string{"db_password"}, err.Details["missing"])
}

func TestHasCode(t *testing.T) {
	base := NewError(ErrCodeActionUnavailable, "action \"x\" not registered")
	wrapped := fmt.Errorf("resolve: %w", base)

	assert.True(t, HasCode(base, ErrCodeActionUnavailable))
	assert.True(t, HasCode(wrapped, ErrCodeActionUnavailable))
	assert.False(t, HasCode(wrapped, ErrCodeValidation))
	assert.False(t, HasCode(errors.New("plain"), ErrCodeValidation))
	assert.False(t, HasCode(nil, ErrCodeValidation))
}
