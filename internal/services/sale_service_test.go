package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-backend/internal/ledger"
	"pos-backend/internal/models"
	"pos-backend/internal/repositories"
)

func TestCheckoutParams(t *testing.T) {
	productID := uuid.New()
	customerID := uuid.New()
	userID := uuid.New()

	tests := []struct {
		name    string
		req     models.CheckoutRequest
		wantErr bool
	}{
		{
			name: "cash by product id",
			req: models.CheckoutRequest{
				Items:       []models.CheckoutLine{{ProductID: &productID, Quantity: 2}},
				PaymentType: models.PaymentTypeCash,
			},
		},
		{
			name: "credit by barcode",
			req: models.CheckoutRequest{
				Items:       []models.CheckoutLine{{Barcode: "8901234", Quantity: 1}},
				CustomerID:  &customerID,
				PaymentType: models.PaymentTypeCredit,
			},
		},
		{
			name: "no items",
			req: models.CheckoutRequest{
				PaymentType: models.PaymentTypeCash,
			},
			wantErr: true,
		},
		{
			name: "zero quantity",
			req: models.CheckoutRequest{
				Items:       []models.CheckoutLine{{ProductID: &productID, Quantity: 0}},
				PaymentType: models.PaymentTypeCash,
			},
			wantErr: true,
		},
		{
			name: "unknown payment type",
			req: models.CheckoutRequest{
				Items:       []models.CheckoutLine{{ProductID: &productID, Quantity: 1}},
				PaymentType: "barter",
			},
			wantErr: true,
		},
		{
			name: "negative paid amount",
			req: models.CheckoutRequest{
				Items:       []models.CheckoutLine{{ProductID: &productID, Quantity: 1}},
				PaymentType: models.PaymentTypeCash,
				PaidAmount:  decimal.NewFromInt(-5),
			},
			wantErr: true,
		},
		{
			name: "sub-customer without customer",
			req: models.CheckoutRequest{
				Items:         []models.CheckoutLine{{ProductID: &productID, Quantity: 1}},
				SubCustomerID: &customerID,
				PaymentType:   models.PaymentTypeCash,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := checkoutParams(&tt.req, &userID, " key-1 ")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "key-1", params.IdempotencyKey)
			assert.Equal(t, &userID, params.CreatedBy)
			assert.Equal(t, tt.req.Items, params.Lines)
		})
	}
}

func TestCheckoutOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: rice has 1, requested 2", ledger.ErrInsufficientStock), "rejected"},
		{ledger.ErrCustomerRequired, "rejected"},
		{ledger.ErrAccountClosed, "rejected"},
		{fmt.Errorf("%w: customer", repositories.ErrNotFound), "rejected"},
		{validationError("bad"), "rejected"},
		{errors.New("connection refused"), "failed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, checkoutOutcome(tt.err), tt.err.Error())
	}
}
