package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"pos-backend/internal/config"
	"pos-backend/internal/ledger"
	"pos-backend/internal/models"
	"pos-backend/internal/repositories"
)

// OrderGateway creates payment orders at the provider.
type OrderGateway interface {
	CreateOrder(data map[string]interface{}) (map[string]interface{}, error)
}

type razorpayGateway struct {
	client *razorpay.Client
}

func (g *razorpayGateway) CreateOrder(data map[string]interface{}) (map[string]interface{}, error) {
	return g.client.Order.Create(data, nil)
}

// OnlineTransactionStore persists provider orders and their outcome.
type OnlineTransactionStore interface {
	Create(ctx context.Context, t *models.OnlineTransaction) error
	MarkPaid(ctx context.Context, orderID, paymentID string) (*models.OnlineTransaction, error)
	MarkFailed(ctx context.Context, orderID, paymentID, reason string) error
}

// RazorpayService takes online payments against customer debts.
type RazorpayService struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Currency      string

	Gateway      OrderGateway
	Transactions OnlineTransactionStore
	Debts        *repositories.DebtRepository
	Balances     ledger.BalanceQuery
	Logger       *logrus.Logger
}

func NewRazorpayService(cfg *config.Config, transactions OnlineTransactionStore, debts *repositories.DebtRepository, balances ledger.BalanceQuery, logger *logrus.Logger) *RazorpayService {
	s := &RazorpayService{
		KeyID:         cfg.Razorpay.KeyID,
		KeySecret:     cfg.Razorpay.KeySecret,
		WebhookSecret: cfg.Razorpay.WebhookSecret,
		Currency:      cfg.Business.Currency,
		Transactions:  transactions,
		Debts:         debts,
		Balances:      balances,
		Logger:        logger,
	}
	if s.Currency == "" {
		s.Currency = "INR"
	}
	if cfg.RazorpayEnabled() {
		s.Gateway = &razorpayGateway{client: razorpay.NewClient(s.KeyID, s.KeySecret)}
	}
	return s
}

// Enabled reports whether keys are configured.
func (s *RazorpayService) Enabled() bool {
	return s.Gateway != nil && s.KeySecret != ""
}

// CreateOrder raises a provider order for part or all of a customer's
// outstanding balance.
func (s *RazorpayService) CreateOrder(ctx context.Context, req *models.CreateOnlineOrderRequest) (*models.CreateOnlineOrderResponse, error) {
	if !s.Enabled() {
		return nil, ErrPaymentsDisabled
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := requirePositive("amount", req.Amount); err != nil {
		return nil, err
	}

	scope := ledger.Scope{CustomerID: req.CustomerID, SubCustomerID: req.SubCustomerID}
	if req.DebtID != nil {
		debt, err := s.Debts.GetDebt(ctx, *req.DebtID)
		if err != nil {
			return nil, err
		}
		if debt.CustomerID != req.CustomerID || !scope.Matches(debt.SubCustomerID) {
			return nil, fmt.Errorf("%w: debt belongs to another account", ledger.ErrSubCustomerMismatch)
		}
		if debt.Status != models.DebtStatusActive {
			return nil, ledger.ErrDebtNotActive
		}
	}
	summary, err := s.Balances.Balance(ctx, scope)
	if err != nil {
		return nil, err
	}
	if req.Amount.GreaterThan(summary.RemainingDebt) {
		return nil, fmt.Errorf("%w: %s remaining", ErrAmountExceedsBalance, summary.RemainingDebt.String())
	}

	amountPaise := toPaise(req.Amount)
	tx := &models.OnlineTransaction{
		CustomerID:    req.CustomerID,
		SubCustomerID: req.SubCustomerID,
		DebtID:        req.DebtID,
		Amount:        req.Amount,
	}
	orderData := map[string]interface{}{
		"amount":   amountPaise,
		"currency": s.Currency,
		"receipt":  "cust_" + req.CustomerID.String()[:8],
		"notes":    orderNotes(req),
	}
	order, err := s.Gateway.CreateOrder(orderData)
	if err != nil {
		config.LogError(s.Logger, "RazorpayService", "CreateOrder", "create provider order", orderData, err)
		return nil, fmt.Errorf("failed to create razorpay order: %w", err)
	}
	orderID, ok := order["id"].(string)
	if !ok || orderID == "" {
		return nil, errors.New("razorpay order response has no id")
	}
	tx.RazorpayOrderID = orderID

	if err := s.Transactions.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to store transaction: %w", err)
	}

	return &models.CreateOnlineOrderResponse{
		TransactionID: tx.ID,
		OrderID:       orderID,
		Amount:        req.Amount,
		AmountPaise:   amountPaise,
		Currency:      s.Currency,
		KeyID:         s.KeyID,
	}, nil
}

// VerifyPayment checks the checkout signature and records the payment.
func (s *RazorpayService) VerifyPayment(ctx context.Context, req *models.VerifyOnlinePaymentRequest) (*models.OnlineTransaction, error) {
	if !s.Enabled() {
		return nil, ErrPaymentsDisabled
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if !verifySignature(s.KeySecret, req.OrderID+"|"+req.PaymentID, req.Signature) {
		return nil, ErrInvalidSignature
	}
	return s.capture(ctx, req.OrderID, req.PaymentID)
}

// HandleWebhook processes payment.captured and payment.failed. Other
// events are acknowledged and ignored.
func (s *RazorpayService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !s.Enabled() || s.WebhookSecret == "" {
		return ErrPaymentsDisabled
	}
	if !verifySignature(s.WebhookSecret, string(body), signature) {
		return ErrInvalidSignature
	}

	var event models.RazorpayWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return validationError("malformed webhook body")
	}
	entity := event.Payload.Payment.Entity

	switch event.Event {
	case "payment.captured":
		_, err := s.capture(ctx, entity.OrderID, entity.ID)
		if errors.Is(err, repositories.ErrNotFound) {
			// orders raised elsewhere on the same account
			s.Logger.WithField("order_id", entity.OrderID).Warn("webhook for unknown order")
			return nil
		}
		return err
	case "payment.failed":
		return s.Transactions.MarkFailed(ctx, entity.OrderID, entity.ID, entity.ErrorDescription)
	default:
		return nil
	}
}

func (s *RazorpayService) capture(ctx context.Context, orderID, paymentID string) (*models.OnlineTransaction, error) {
	tx, err := s.Transactions.MarkPaid(ctx, orderID, paymentID)
	if err != nil {
		return nil, err
	}
	invalidateBalances(ctx, tx.CustomerID)
	return tx, nil
}

func orderNotes(req *models.CreateOnlineOrderRequest) map[string]interface{} {
	notes := map[string]interface{}{
		"customer_id": req.CustomerID.String(),
	}
	if req.SubCustomerID != nil {
		notes["sub_customer_id"] = req.SubCustomerID.String()
	}
	if req.DebtID != nil {
		notes["debt_id"] = req.DebtID.String()
	}
	return notes
}

func toPaise(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// verifySignature compares a hex HMAC-SHA256 of payload.
func verifySignature(secret, payload, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(payload))
	expectedSignature := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expectedSignature), []byte(signature))
}
