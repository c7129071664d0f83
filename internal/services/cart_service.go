package services

import (
	"context"

	"github.com/google/uuid"

	"pos-backend/internal/metrics"
	"pos-backend/internal/models"
	"pos-backend/internal/repositories"
)

// CartService keeps one server-side cart per user so a terminal can
// resume after a reload.
type CartService struct {
	Repo  *repositories.CartRepository
	Sales *SaleService
}

func NewCartService(repo *repositories.CartRepository, sales *SaleService) *CartService {
	return &CartService{Repo: repo, Sales: sales}
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return s.Repo.Get(ctx, userID)
}

func (s *CartService) SaveCart(ctx context.Context, userID uuid.UUID, req *models.SaveCartRequest) (*models.Cart, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.SubCustomerID != nil && req.CustomerID == nil {
		return nil, validationError("subCustomerId requires customerId")
	}
	if err := s.Repo.Save(ctx, userID, req); err != nil {
		return nil, err
	}
	return s.Repo.Get(ctx, userID)
}

func (s *CartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return s.Repo.Clear(ctx, userID)
}

// Checkout sells the saved cart and empties it in the same transaction.
func (s *CartService) Checkout(ctx context.Context, userID uuid.UUID, req *models.CartCheckoutRequest, idempotencyKey string) (*models.CheckoutResult, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	cart, err := s.Repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, validationError("cart is empty")
	}

	checkout := cartCheckoutRequest(cart, req)
	params, err := checkoutParams(checkout, &userID, idempotencyKey)
	if err != nil {
		metrics.CheckoutsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	params.ClearCartOf = &userID
	return s.Sales.run(ctx, params)
}

func cartCheckoutRequest(cart *models.Cart, req *models.CartCheckoutRequest) *models.CheckoutRequest {
	lines := make([]models.CheckoutLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		productID := item.ProductID
		lines = append(lines, models.CheckoutLine{ProductID: &productID, Quantity: item.Quantity})
	}
	return &models.CheckoutRequest{
		Items:         lines,
		CustomerID:    cart.CustomerID,
		SubCustomerID: cart.SubCustomerID,
		PaymentType:   req.PaymentType,
		PaidAmount:    req.PaidAmount,
		Note:          req.Note,
	}
}
