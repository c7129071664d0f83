package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-backend/internal/models"
)

func TestCartCheckoutRequest(t *testing.T) {
	customerID := uuid.New()
	first, second := uuid.New(), uuid.New()
	cart := &models.Cart{
		CustomerID: &customerID,
		Items: []models.CartItem{
			{ProductID: first, Quantity: 2},
			{ProductID: second, Quantity: 1},
		},
	}

	req := cartCheckoutRequest(cart, &models.CartCheckoutRequest{
		PaymentType: models.PaymentTypeCredit,
		PaidAmount:  money("15"),
		Note:        "tab",
	})

	require.Len(t, req.Items, 2)
	assert.Equal(t, first, *req.Items[0].ProductID)
	assert.Equal(t, 2, req.Items[0].Quantity)
	assert.Equal(t, second, *req.Items[1].ProductID)
	assert.Equal(t, &customerID, req.CustomerID)
	assert.Equal(t, models.PaymentTypeCredit, req.PaymentType)
	assert.Equal(t, "15", req.PaidAmount.String())

	params, err := checkoutParams(req, nil, "")
	require.NoError(t, err)
	assert.Len(t, params.Lines, 2)
}
