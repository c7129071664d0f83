package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"pos-backend/internal/ledger"
	"pos-backend/internal/models"
	"pos-backend/internal/repositories"
)

// DebtService covers receivables: debts, customer payments and refunds.
type DebtService struct {
	Repo   *repositories.DebtRepository
	Sales  *repositories.SaleRepository
	Ledger *LedgerService
}

func NewDebtService(repo *repositories.DebtRepository, sales *repositories.SaleRepository, ledgerService *LedgerService) *DebtService {
	return &DebtService{
		Repo:   repo,
		Sales:  sales,
		Ledger: ledgerService,
	}
}

// Summary is the customer debt/payment view; see LedgerService.Summary.
func (s *DebtService) Summary(ctx context.Context, q models.DebtQuery) (*models.DebtSummaryResponse, error) {
	return s.Ledger.Summary(ctx, q)
}

// CreateDebt records a manual or adjustment debt. Sale debts only come
// from checkout.
func (s *DebtService) CreateDebt(ctx context.Context, customerID uuid.UUID, req *models.CreateDebtRequest) (*models.Debt, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := requirePositive("amount", req.Amount); err != nil {
		return nil, err
	}
	debtType := req.Type
	if debtType == "" {
		debtType = models.DebtTypeManual
	}
	debt := &models.Debt{
		CustomerID:    customerID,
		SubCustomerID: req.SubCustomerID,
		Amount:        req.Amount,
		Description:   strings.TrimSpace(req.Description),
		Type:          debtType,
	}
	if err := s.Repo.CreateDebt(ctx, debt); err != nil {
		return nil, err
	}
	invalidateBalances(ctx, customerID)

	if err := s.Ledger.FillDerived(ctx, debt); err != nil {
		return nil, err
	}
	return debt, nil
}

// GetDebt returns the debt with derived amounts and its sale attached.
func (s *DebtService) GetDebt(ctx context.Context, id uuid.UUID) (*models.Debt, error) {
	debt, err := s.Repo.GetDebt(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Ledger.FillDerived(ctx, debt); err != nil {
		return nil, err
	}
	if debt.SaleID != nil {
		sale, err := s.Sales.Get(ctx, *debt.SaleID)
		if err != nil {
			return nil, err
		}
		debt.Sale = sale
	}
	return debt, nil
}

// UpdateDebt edits the description. isPaid is derived from payments and
// refunds, so a requested value must agree with it.
func (s *DebtService) UpdateDebt(ctx context.Context, id uuid.UUID, req *models.UpdateDebtRequest) (*models.Debt, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	debt, err := s.GetDebt(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.IsPaid != nil {
		if err := ledger.CheckPaidFlag(debt, *req.IsPaid); err != nil {
			return nil, err
		}
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if err := s.Repo.UpdateDescription(ctx, id, description); err != nil {
			return nil, err
		}
		debt.Description = description
	}
	return debt, nil
}

func (s *DebtService) CancelDebt(ctx context.Context, id uuid.UUID) (*models.Debt, error) {
	debt, err := s.Repo.CancelDebt(ctx, id)
	if err != nil {
		return nil, err
	}
	invalidateBalances(ctx, debt.CustomerID)
	applyDerived([]*models.Debt{debt}, &ledger.Ledger{})
	return debt, nil
}

func (s *DebtService) CreatePayment(ctx context.Context, req *models.CreatePaymentRequest) (*models.CustomerPayment, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := requirePositive("amount", req.Amount); err != nil {
		return nil, err
	}
	payment := &models.CustomerPayment{
		CustomerID:    req.CustomerID,
		SubCustomerID: req.SubCustomerID,
		DebtID:        req.DebtID,
		Amount:        req.Amount,
		Type:          req.Type,
		Note:          strings.TrimSpace(req.Note),
	}
	if req.PaymentDate != nil {
		payment.PaymentDate = *req.PaymentDate
	}
	if err := s.Repo.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}
	invalidateBalances(ctx, payment.CustomerID)
	return payment, nil
}

func (s *DebtService) ListPayments(ctx context.Context, q models.DebtQuery) ([]*models.CustomerPayment, error) {
	payments, err := s.Repo.ListPayments(ctx, q)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []*models.CustomerPayment{}
	}
	return payments, nil
}

func (s *DebtService) CancelPayment(ctx context.Context, id uuid.UUID) (*models.CustomerPayment, error) {
	payment, err := s.Repo.CancelPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	invalidateBalances(ctx, payment.CustomerID)
	return payment, nil
}

// CreateRefund records a refund on a debt. A sale item refund also needs a
// quantity; restocking puts that quantity back on the shelf.
func (s *DebtService) CreateRefund(ctx context.Context, debtID uuid.UUID, req *models.CreateRefundRequest) (*models.Refund, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := requirePositive("amount", req.Amount); err != nil {
		return nil, err
	}
	if req.SaleItemID == nil && req.Restock {
		return nil, validationError("restock requires saleItemId")
	}
	if req.SaleItemID != nil && req.Quantity <= 0 {
		return nil, validationError("quantity is required for a sale item refund")
	}
	refund := &models.Refund{
		DebtID:     debtID,
		SaleItemID: req.SaleItemID,
		Quantity:   req.Quantity,
		Amount:     req.Amount,
		Restock:    req.Restock,
		Reason:     strings.TrimSpace(req.Reason),
	}
	if err := s.Repo.CreateRefund(ctx, refund); err != nil {
		return nil, err
	}
	invalidateBalances(ctx, refund.CustomerID)
	return refund, nil
}

func (s *DebtService) ListRefunds(ctx context.Context, debtID uuid.UUID) ([]*models.Refund, error) {
	if _, err := s.Repo.GetDebt(ctx, debtID); err != nil {
		return nil, err
	}
	refunds, err := s.Repo.ListRefunds(ctx, debtID)
	if err != nil {
		return nil, err
	}
	if refunds == nil {
		refunds = []*models.Refund{}
	}
	return refunds, nil
}

func (s *DebtService) CancelRefund(ctx context.Context, id uuid.UUID) (*models.Refund, error) {
	refund, err := s.Repo.CancelRefund(ctx, id)
	if err != nil {
		return nil, err
	}
	invalidateBalances(ctx, refund.CustomerID)
	return refund, nil
}
