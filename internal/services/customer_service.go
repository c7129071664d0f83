package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"pos-backend/internal/ledger"
	"pos-backend/internal/models"
	"pos-backend/internal/repositories"
	"pos-backend/pkg/utils"
)

type CustomerService struct {
	Repo        *repositories.CustomerRepository
	Balances    ledger.BalanceQuery
	PhoneRegion string
}

func NewCustomerService(repo *repositories.CustomerRepository, balances ledger.BalanceQuery, phoneRegion string) *CustomerService {
	return &CustomerService{
		Repo:        repo,
		Balances:    balances,
		PhoneRegion: phoneRegion,
	}
}

func (s *CustomerService) CreateCustomer(ctx context.Context, req *models.CustomerRequest) (*models.Customer, error) {
	customer, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	return s.Repo.Get(ctx, id)
}

// ListCustomers searches by name or phone. A query that parses as a phone
// number is also matched in its normalized form.
func (s *CustomerService) ListCustomers(ctx context.Context, q string) ([]*models.Customer, error) {
	q = strings.TrimSpace(q)
	if phone, err := utils.NormalizePhone(q, s.PhoneRegion); err == nil && phone != "" {
		q = phone
	}
	customers, err := s.Repo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	if customers == nil {
		customers = []*models.Customer{}
	}
	return customers, nil
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, id uuid.UUID, req *models.CustomerRequest) (*models.Customer, error) {
	customer, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	customer.ID = id
	if err := s.Repo.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *CustomerService) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	invalidateBalances(ctx, id)
	return nil
}

func (s *CustomerService) fromRequest(req *models.CustomerRequest) (*models.Customer, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	phone, err := utils.NormalizePhone(req.Phone, s.PhoneRegion)
	if err != nil {
		return nil, validationError("phone %q is not a valid number", req.Phone)
	}
	return &models.Customer{
		Name:    strings.TrimSpace(req.Name),
		Phone:   phone,
		Address: strings.TrimSpace(req.Address),
		Color:   req.Color,
	}, nil
}

func (s *CustomerService) CreateSubCustomer(ctx context.Context, customerID uuid.UUID, req *models.SubCustomerRequest) (*models.SubCustomer, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.Repo.Get(ctx, customerID); err != nil {
		return nil, err
	}
	sub := &models.SubCustomer{
		CustomerID:  customerID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	if err := s.Repo.CreateSubCustomer(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *CustomerService) ListSubCustomers(ctx context.Context, customerID uuid.UUID) ([]*models.SubCustomer, error) {
	if _, err := s.Repo.Get(ctx, customerID); err != nil {
		return nil, err
	}
	subs, err := s.Repo.ListSubCustomers(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []*models.SubCustomer{}
	}
	return subs, nil
}

// GetSubCustomer hides soft-deleted accounts.
func (s *CustomerService) GetSubCustomer(ctx context.Context, id uuid.UUID) (*models.SubCustomer, error) {
	sub, err := s.Repo.GetSubCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status == models.SubCustomerDeleted {
		return nil, repositories.ErrNotFound
	}
	return sub, nil
}

func (s *CustomerService) UpdateSubCustomer(ctx context.Context, id uuid.UUID, req *models.SubCustomerRequest) (*models.SubCustomer, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	sub := &models.SubCustomer{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	if err := s.Repo.UpdateSubCustomer(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// SubCustomerBalance is the shared scope summary of one account.
func (s *CustomerService) SubCustomerBalance(ctx context.Context, id uuid.UUID) (ledger.Summary, error) {
	sub, err := s.GetSubCustomer(ctx, id)
	if err != nil {
		return ledger.Summary{}, err
	}
	return s.Balances.Balance(ctx, ledger.Scope{CustomerID: sub.CustomerID, SubCustomerID: &sub.ID})
}

// CloseSubCustomer rejects the close while the account still owes money.
func (s *CustomerService) CloseSubCustomer(ctx context.Context, id uuid.UUID) (*models.SubCustomer, error) {
	sub, err := s.Repo.CloseSubCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	invalidateBalances(ctx, sub.CustomerID)
	return sub, nil
}

func (s *CustomerService) OpenSubCustomer(ctx context.Context, id uuid.UUID) (*models.SubCustomer, error) {
	sub, err := s.Repo.OpenSubCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	invalidateBalances(ctx, sub.CustomerID)
	return sub, nil
}

func (s *CustomerService) DeleteSubCustomer(ctx context.Context, id uuid.UUID) error {
	sub, err := s.Repo.SoftDeleteSubCustomer(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return fmt.Errorf("%w: already deleted", repositories.ErrNotFound)
		}
		return err
	}
	invalidateBalances(ctx, sub.CustomerID)
	return nil
}
