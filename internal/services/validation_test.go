package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"pos-backend/internal/models"
)

func TestValidateStructMessages(t *testing.T) {
	err := validateStruct(&models.CreateUserRequest{Email: "nope", Password: "short", Role: "owner"})
	assert.ErrorIs(t, err, ErrValidation)
	msg := err.Error()
	assert.Contains(t, msg, "Name is required")
	assert.Contains(t, msg, "Email must be a valid email")
	assert.Contains(t, msg, "Password must be at least 8")
	assert.Contains(t, msg, "Role must be one of: admin cashier")

	assert.NoError(t, validateStruct(&models.CreateUserRequest{
		Name: "Asha", Email: "asha@shop.test", Password: "longenough",
	}))
}

func TestAmountChecks(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		positive bool
		wantErr  bool
	}{
		{"positive ok", "10.50", true, false},
		{"zero not positive", "0", true, true},
		{"negative", "-1", true, true},
		{"sub-cent", "0.005", true, true},
		{"zero non-negative", "0", false, false},
		{"negative non-negative", "-0.01", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			var err error
			if tt.positive {
				err = requirePositive("amount", amount)
			} else {
				err = requireNonNegative("amount", amount)
			}
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
