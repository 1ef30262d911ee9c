package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMin(t *testing.T) {
	assert.Equal(t, 1, Min(1, 2))
	assert.Equal(t, -3, Min(5, -3))
	assert.Equal(t, 4, Min(4, 4))
}

func TestRoundKm(t *testing.T) {
	assert.Equal(t, 12.35, RoundKm(12.3456))
	assert.Equal(t, 0.0, RoundKm(0))
	assert.Equal(t, 1.0, RoundKm(0.999))
}

func TestPtr(t *testing.T) {
	v := Ptr(42)
	assert.Equal(t, 42, *v)
}
