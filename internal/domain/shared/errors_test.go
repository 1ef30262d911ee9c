package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"not found", NewNotFoundError("order", "abc"), KindNotFound},
		{"invalid state", NewInvalidStateError("cannot start"), KindInvalidState},
		{"not assigned", NewNotAssignedError("not yours"), KindNotAssigned},
		{"capacity", NewCapacityExhaustedError("no couriers"), KindCapacityExhausted},
		{"upstream", NewUpstreamError("provider down", errors.New("timeout")), KindUpstream},
		{"validation", NewValidationError("weight_kg", "must not be negative"), KindValidation},
		{"wrapped keeps kind", fmt.Errorf("planning: %w", NewNotFoundError("sme", "s1")), KindNotFound},
		{"plain error has no kind", errors.New("boom"), ErrorKind("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIsKind(t *testing.T) {
	err := NewInvalidStateError("leg already completed")

	assert.True(t, IsKind(err, KindInvalidState))
	assert.False(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(nil, KindInvalidState))
}

func TestDomainErrorMessage(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewUpstreamError("routing provider unreachable", cause)

	assert.Equal(t, "routing provider unreachable: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := NewValidationError("action", "is required")
	assert.Equal(t, "action: is required", bare.Error())
}
