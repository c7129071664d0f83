package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pos-backend/internal/config"
	"pos-backend/internal/ledger"
	"pos-backend/internal/metrics"
	"pos-backend/internal/models"
	"pos-backend/internal/repositories"
)

type SaleService struct {
	Repo   *repositories.SaleRepository
	Logger *logrus.Logger
}

func NewSaleService(repo *repositories.SaleRepository, logger *logrus.Logger) *SaleService {
	return &SaleService{
		Repo:   repo,
		Logger: logger,
	}
}

// Checkout validates the request and runs the atomic checkout. The
// idempotency key may be empty.
func (s *SaleService) Checkout(ctx context.Context, req *models.CheckoutRequest, userID *uuid.UUID, idempotencyKey string) (*models.CheckoutResult, error) {
	params, err := checkoutParams(req, userID, idempotencyKey)
	if err != nil {
		metrics.CheckoutsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	return s.run(ctx, params)
}

func (s *SaleService) run(ctx context.Context, params repositories.CheckoutParams) (*models.CheckoutResult, error) {
	result, err := s.Repo.Checkout(ctx, params)
	if err != nil {
		outcome := checkoutOutcome(err)
		metrics.CheckoutsTotal.WithLabelValues(outcome).Inc()
		if outcome == "failed" {
			config.LogError(s.Logger, "SaleService", "Checkout", "checkout transaction", map[string]any{
				"lines":    len(params.Lines),
				"customer": params.CustomerID,
			}, err)
		}
		return nil, err
	}
	if result.Replay {
		metrics.CheckoutsTotal.WithLabelValues("replayed").Inc()
		return result, nil
	}
	metrics.CheckoutsTotal.WithLabelValues("completed").Inc()
	if params.CustomerID != nil {
		invalidateBalances(ctx, *params.CustomerID)
	}
	return result, nil
}

func checkoutParams(req *models.CheckoutRequest, userID *uuid.UUID, idempotencyKey string) (repositories.CheckoutParams, error) {
	if err := validateStruct(req); err != nil {
		return repositories.CheckoutParams{}, err
	}
	if err := requireNonNegative("paidAmount", req.PaidAmount); err != nil {
		return repositories.CheckoutParams{}, err
	}
	if req.SubCustomerID != nil && req.CustomerID == nil {
		return repositories.CheckoutParams{}, validationError("subCustomerId requires customerId")
	}
	for i, line := range req.Items {
		if line.ProductID == nil && strings.TrimSpace(line.Barcode) == "" {
			return repositories.CheckoutParams{}, validationError("items[%d] needs productId or barcode", i)
		}
	}
	return repositories.CheckoutParams{
		Lines:          req.Items,
		CustomerID:     req.CustomerID,
		SubCustomerID:  req.SubCustomerID,
		PaymentType:    req.PaymentType,
		PaidAmount:     req.PaidAmount,
		Note:           strings.TrimSpace(req.Note),
		CreatedBy:      userID,
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
	}, nil
}

// checkoutOutcome labels a checkout error for metrics: rejected for
// business rule and input failures, failed for everything else.
func checkoutOutcome(err error) string {
	rejections := []error{
		ErrValidation,
		ledger.ErrInvalidAmount,
		ledger.ErrPaidExceedsTotal,
		ledger.ErrCustomerRequired,
		ledger.ErrInsufficientStock,
		ledger.ErrProductNotFound,
		ledger.ErrProductInactive,
		ledger.ErrAccountClosed,
		ledger.ErrSubCustomerMismatch,
		repositories.ErrNotFound,
		repositories.ErrConflict,
	}
	for _, target := range rejections {
		if errors.Is(err, target) {
			return "rejected"
		}
	}
	return "failed"
}

func (s *SaleService) GetSale(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	return s.Repo.Get(ctx, id)
}

func (s *SaleService) ListSales(ctx context.Context, f models.SaleFilter) ([]*models.Sale, error) {
	if f.Status != "" && f.Status != models.SaleStatusCompleted && f.Status != models.SaleStatusCancelled {
		return nil, validationError("status must be one of: completed cancelled")
	}
	sales, err := s.Repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if sales == nil {
		sales = []*models.Sale{}
	}
	return sales, nil
}

// CancelSale restores stock and cancels the sale's debt and payments.
func (s *SaleService) CancelSale(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	sale, err := s.Repo.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale.CustomerID != nil {
		invalidateBalances(ctx, *sale.CustomerID)
	}
	return sale, nil
}
