package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-backend/internal/ledger"
	"pos-backend/internal/models"
	"pos-backend/internal/repositories"
)

func sign(secret, payload string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	good := sign("s3cret", "order_1|pay_1")

	assert.True(t, verifySignature("s3cret", "order_1|pay_1", good))
	assert.False(t, verifySignature("s3cret", "order_1|pay_2", good))
	assert.False(t, verifySignature("other", "order_1|pay_1", good))
	assert.False(t, verifySignature("", "order_1|pay_1", good))
	assert.False(t, verifySignature("s3cret", "order_1|pay_1", ""))
}

func TestToPaise(t *testing.T) {
	assert.Equal(t, int64(10050), toPaise(money("100.50")))
	assert.Equal(t, int64(1), toPaise(money("0.01")))
	assert.Equal(t, int64(60000), toPaise(money("600")))
}

func TestOrderNotes(t *testing.T) {
	customerID, debtID := uuid.New(), uuid.New()
	notes := orderNotes(&models.CreateOnlineOrderRequest{CustomerID: customerID, DebtID: &debtID})
	assert.Equal(t, customerID.String(), notes["customer_id"])
	assert.Equal(t, debtID.String(), notes["debt_id"])
	assert.NotContains(t, notes, "sub_customer_id")
}

type stubBalances struct {
	summary ledger.Summary
}

func (s stubBalances) Balance(ctx context.Context, scope ledger.Scope) (ledger.Summary, error) {
	return s.summary, nil
}

type recordingGateway struct {
	data map[string]interface{}
}

func (g *recordingGateway) CreateOrder(data map[string]interface{}) (map[string]interface{}, error) {
	g.data = data
	return map[string]interface{}{"id": "order_test"}, nil
}

func TestCreateOrderRules(t *testing.T) {
	disabled := &RazorpayService{}
	_, err := disabled.CreateOrder(context.Background(), &models.CreateOnlineOrderRequest{CustomerID: uuid.New(), Amount: money("10")})
	assert.ErrorIs(t, err, ErrPaymentsDisabled)

	gateway := &recordingGateway{}
	svc := &RazorpayService{
		KeySecret: "secret",
		Currency:  "INR",
		Gateway:   gateway,
		Balances:  stubBalances{summary: ledger.Summary{RemainingDebt: money("60")}},
	}

	_, err = svc.CreateOrder(context.Background(), &models.CreateOnlineOrderRequest{CustomerID: uuid.New(), Amount: money("0")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateOrder(context.Background(), &models.CreateOnlineOrderRequest{CustomerID: uuid.New(), Amount: money("60.01")})
	require.ErrorIs(t, err, ErrAmountExceedsBalance)
	assert.Nil(t, gateway.data, "no provider order for a rejected amount")
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	svc := &RazorpayService{KeySecret: "k", WebhookSecret: "wh", Gateway: &recordingGateway{}}
	body := []byte(`{"event":"payment.captured"}`)

	err := svc.HandleWebhook(context.Background(), body, sign("wrong", string(body)))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	err = svc.HandleWebhook(context.Background(), body, sign("wh", string(body))+"00")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	ignored := []byte(`{"event":"order.paid"}`)
	assert.NoError(t, svc.HandleWebhook(context.Background(), ignored, sign("wh", string(ignored))))
}

type fakeTransactions struct {
	byOrder map[string]*models.OnlineTransaction
	paid    []string
	failed  []string
	err     error
}

func (f *fakeTransactions) Create(ctx context.Context, t *models.OnlineTransaction) error {
	t.ID = uuid.New()
	f.byOrder[t.RazorpayOrderID] = t
	return nil
}

func (f *fakeTransactions) MarkPaid(ctx context.Context, orderID, paymentID string) (*models.OnlineTransaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.byOrder[orderID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	f.paid = append(f.paid, paymentID)
	t.Status = models.OnlineTxStatusPaid
	t.RazorpayPaymentID = paymentID
	return t, nil
}

func (f *fakeTransactions) MarkFailed(ctx context.Context, orderID, paymentID, reason string) error {
	f.failed = append(f.failed, orderID+":"+reason)
	return nil
}

func webhookBody(event, orderID, paymentID string) []byte {
	return []byte(fmt.Sprintf(
		`{"event":%q,"payload":{"payment":{"entity":{"id":%q,"order_id":%q,"error_description":"declined"}}}}`,
		event, paymentID, orderID))
}

func TestHandleWebhookOutcomes(t *testing.T) {
	storeErr := errors.New("database unavailable")

	tests := []struct {
		name      string
		body      []byte
		storeErr  error
		wantErr   error
		wantPaid  []string
		wantFails []string
	}{
		{
			name:     "captured order is marked paid",
			body:     webhookBody("payment.captured", "order_known", "pay_1"),
			wantPaid: []string{"pay_1"},
		},
		{
			name: "captured unknown order is acknowledged",
			body: webhookBody("payment.captured", "order_elsewhere", "pay_2"),
		},
		{
			name:      "failed payment is recorded",
			body:      webhookBody("payment.failed", "order_known", "pay_3"),
			wantFails: []string{"order_known:declined"},
		},
		{
			name:     "store errors are retried by the provider",
			body:     webhookBody("payment.captured", "order_known", "pay_4"),
			storeErr: storeErr,
			wantErr:  storeErr,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeTransactions{
				byOrder: map[string]*models.OnlineTransaction{
					"order_known": {ID: uuid.New(), CustomerID: uuid.New(), RazorpayOrderID: "order_known", Amount: money("40")},
				},
				err: tt.storeErr,
			}
			logger := logrus.New()
			logger.SetOutput(io.Discard)
			svc := &RazorpayService{
				KeySecret:     "k",
				WebhookSecret: "wh",
				Gateway:       &recordingGateway{},
				Transactions:  store,
				Logger:        logger,
			}

			err := svc.HandleWebhook(context.Background(), tt.body, sign("wh", string(tt.body)))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPaid, store.paid)
			assert.Equal(t, tt.wantFails, store.failed)
		})
	}
}

func TestCreateOrderStoresTransaction(t *testing.T) {
	store := &fakeTransactions{byOrder: map[string]*models.OnlineTransaction{}}
	svc := &RazorpayService{
		KeySecret:    "secret",
		KeyID:        "key",
		Currency:     "INR",
		Gateway:      &recordingGateway{},
		Transactions: store,
		Balances:     stubBalances{summary: ledger.Summary{RemainingDebt: money("60")}},
	}

	resp, err := svc.CreateOrder(context.Background(), &models.CreateOnlineOrderRequest{CustomerID: uuid.New(), Amount: money("25.50")})
	require.NoError(t, err)
	assert.Equal(t, "order_test", resp.OrderID)
	assert.Equal(t, int64(2550), resp.AmountPaise)
	require.Contains(t, store.byOrder, "order_test")
	assert.True(t, store.byOrder["order_test"].Amount.Equal(money("25.50")))
}
