package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenErrors_MatchUnauthorized(t *testing.T) {
	for _, err := range []error{ErrTokenExpired, ErrTokenInvalid, ErrTokenNotYetValid, ErrTokenRevoked, ErrInvalidCredentials} {
		wrapped := fmt.Errorf("verify: %w", err)
		assert.ErrorIs(t, wrapped, ErrUnauthorized, err.Error())
		assert.ErrorIs(t, wrapped, err)
	}
	assert.False(t, errors.Is(ErrTokenExpired, ErrTokenInvalid))
}

func TestValidationError(t *testing.T) {
	v := NewValidationError()
	require.NoError(t, v.OrNil())

	v.Add("username", "too short")
	v.Add("username", "ignored")
	v.Add("nama", "required")

	err := v.OrNil()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "validation failed: nama: required; username: too short", err.Error())

	var ve *ValidationError
	require.ErrorAs(t, fmt.Errorf("wrap: %w", err), &ve)
	assert.Len(t, ve.Fields, 2)
}

func TestPolicyAndConflictErrors(t *testing.T) {
	err := Forbidden("access denied to this workload")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "access denied to this workload", err.Error())

	err = Conflict("user has workloads")
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrForbidden)
}

func TestPublicMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
		ok   bool
	}{
		{"token", fmt.Errorf("auth: %w", ErrTokenExpired), "token expired", true},
		{"not found", fmt.Errorf("load: %w", NotFound("workload not found")), "workload not found", true},
		{"unauthorized", Unauthorized("user not found"), "user not found", true},
		{"policy", Forbidden("insufficient permissions"), "insufficient permissions", true},
		{"conflict", Conflict("username taken"), "username taken", true},
		{"validation", NewValidationError().withField("nama", "required"), "Validation Error", true},
		{"bare sentinel", fmt.Errorf("db error: %w", ErrNotFound), "", false},
		{"plain", errors.New("boom"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := PublicMessage(tt.err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.msg, msg)
		})
	}

	assert.ErrorIs(t, NotFound("x"), ErrNotFound)
	assert.ErrorIs(t, Unauthorized("x"), ErrUnauthorized)
}

func (e *ValidationError) withField(field, msg string) error {
	e.Add(field, msg)
	return e
}
