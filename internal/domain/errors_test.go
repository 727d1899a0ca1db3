package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := fmt.Errorf("create booking: %w", Invalid("customer_phone", "is required"))

	assert.True(t, errors.Is(err, ErrValidation))
	assert.True(t, IsValidation(err, "customer_phone"))
	assert.False(t, IsValidation(err, "customer_name"))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "customer_phone: is required")
}
