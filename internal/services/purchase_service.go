package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pos-backend/internal/ledger"
	"pos-backend/internal/models"
	"pos-backend/internal/repositories"
)

// PurchaseService handles stock intake and what we owe vendors.
type PurchaseService struct {
	Repo *repositories.PurchaseRepository
}

func NewPurchaseService(repo *repositories.PurchaseRepository) *PurchaseService {
	return &PurchaseService{Repo: repo}
}

func (s *PurchaseService) CreatePurchaseOrder(ctx context.Context, req *models.CreatePurchaseOrderRequest, userID *uuid.UUID, idempotencyKey string) (*models.PurchaseOrderResult, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := requireNonNegative("paidAmount", req.PaidAmount); err != nil {
		return nil, err
	}
	for i, item := range req.Items {
		if err := requireNonNegative(fmt.Sprintf("items[%d].unitCost", i), item.UnitCost); err != nil {
			return nil, err
		}
	}
	paymentType := req.PaymentType
	if paymentType == "" {
		paymentType = models.PaymentMethodCash
	}
	return s.Repo.CreatePurchaseOrder(ctx, repositories.PurchaseParams{
		VendorID:       req.VendorID,
		Items:          req.Items,
		PaidAmount:     req.PaidAmount,
		PaymentType:    paymentType,
		Note:           strings.TrimSpace(req.Note),
		CreatedBy:      userID,
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
	})
}

func (s *PurchaseService) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	return s.Repo.GetPurchaseOrder(ctx, id)
}

func (s *PurchaseService) ListPurchaseOrders(ctx context.Context, vendorID *uuid.UUID) ([]*models.PurchaseOrder, error) {
	orders, err := s.Repo.ListPurchaseOrders(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []*models.PurchaseOrder{}
	}
	return orders, nil
}

func (s *PurchaseService) CreateMyDebt(ctx context.Context, req *models.CreateMyDebtRequest) (*models.MyDebt, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := requirePositive("amount", req.Amount); err != nil {
		return nil, err
	}
	debt := &models.MyDebt{
		VendorID:        req.VendorID,
		PurchaseOrderID: req.PurchaseOrderID,
		Amount:          req.Amount,
		Description:     strings.TrimSpace(req.Description),
	}
	if err := s.Repo.CreateMyDebt(ctx, debt); err != nil {
		return nil, err
	}
	debt.PaidAmount = decimal.Zero
	debt.RemainingAmount = debt.Amount
	return debt, nil
}

func (s *PurchaseService) UpdateMyDebt(ctx context.Context, id uuid.UUID, req *models.UpdateMyDebtRequest) (*models.MyDebt, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := s.Repo.UpdateMyDebt(ctx, id, strings.TrimSpace(req.Description)); err != nil {
		return nil, err
	}
	debt, err := s.Repo.GetMyDebt(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withAllocation(ctx, debt)
}

// ListMyDebts returns payables with paid/remaining amounts allocated per vendor.
func (s *PurchaseService) ListMyDebts(ctx context.Context, vendorID *uuid.UUID) ([]*models.MyDebt, error) {
	debts, err := s.Repo.ListMyDebts(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	payments, err := s.Repo.ListMyPayments(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	for id := range vendorIDs(debts) {
		ledger.SummarizePayables(id, debts, payments)
	}
	if debts == nil {
		debts = []*models.MyDebt{}
	}
	return debts, nil
}

func (s *PurchaseService) CreateMyPayment(ctx context.Context, req *models.CreateMyPaymentRequest) (*models.MyPayment, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := requirePositive("amount", req.Amount); err != nil {
		return nil, err
	}
	payment := &models.MyPayment{
		VendorID: req.VendorID,
		MyDebtID: req.MyDebtID,
		Amount:   req.Amount,
		Type:     req.Type,
		Note:     strings.TrimSpace(req.Note),
	}
	if req.PaymentDate != nil {
		payment.PaymentDate = *req.PaymentDate
	}
	if err := s.Repo.CreateMyPayment(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *PurchaseService) ListMyPayments(ctx context.Context, vendorID *uuid.UUID) ([]*models.MyPayment, error) {
	payments, err := s.Repo.ListMyPayments(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []*models.MyPayment{}
	}
	return payments, nil
}

// VendorBalance is the payable summary of one vendor.
func (s *PurchaseService) VendorBalance(ctx context.Context, vendorID uuid.UUID) (models.PayableSummary, error) {
	debts, err := s.Repo.ListMyDebts(ctx, &vendorID)
	if err != nil {
		return models.PayableSummary{}, err
	}
	payments, err := s.Repo.ListMyPayments(ctx, &vendorID)
	if err != nil {
		return models.PayableSummary{}, err
	}
	return ledger.SummarizePayables(vendorID, debts, payments), nil
}

func (s *PurchaseService) withAllocation(ctx context.Context, debt *models.MyDebt) (*models.MyDebt, error) {
	debts, err := s.ListMyDebts(ctx, &debt.VendorID)
	if err != nil {
		return nil, err
	}
	for _, d := range debts {
		if d.ID == debt.ID {
			return d, nil
		}
	}
	return debt, nil
}

func vendorIDs(debts []*models.MyDebt) map[uuid.UUID]struct{} {
	ids := make(map[uuid.UUID]struct{})
	for _, d := range debts {
		ids[d.VendorID] = struct{}{}
	}
	return ids
}
