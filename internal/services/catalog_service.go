package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pos-backend/internal/models"
	"pos-backend/internal/repositories"
	"pos-backend/pkg/utils"
)

type ProductService struct {
	Repo *repositories.ProductRepository
}

func NewProductService(repo *repositories.ProductRepository) *ProductService {
	return &ProductService{Repo: repo}
}

func (s *ProductService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := checkPrices(&req.PurchasePrice, &req.SalePrice); err != nil {
		return nil, err
	}
	unit := strings.TrimSpace(req.Unit)
	if unit == "" {
		unit = "pcs"
	}
	product := &models.Product{
		Name:          strings.TrimSpace(req.Name),
		Barcode:       strings.TrimSpace(req.Barcode),
		Category:      strings.TrimSpace(req.Category),
		PurchasePrice: req.PurchasePrice,
		SalePrice:     req.SalePrice,
		Stock:         req.Stock,
		MinStock:      req.MinStock,
		Unit:          unit,
		VendorID:      req.VendorID,
	}
	if err := s.Repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.Repo.Get(ctx, id)
}

func (s *ProductService) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	if strings.TrimSpace(barcode) == "" {
		return nil, validationError("barcode is required")
	}
	return s.Repo.GetByBarcode(ctx, barcode)
}

func (s *ProductService) ListProducts(ctx context.Context, q string) ([]*models.Product, error) {
	return nonNilProducts(s.Repo.List(ctx, strings.TrimSpace(q)))
}

func (s *ProductService) ListLowStock(ctx context.Context) ([]*models.Product, error) {
	return nonNilProducts(s.Repo.ListLowStock(ctx))
}

// UpdateProduct applies a partial update; nil fields are untouched.
func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := checkPrices(req.PurchasePrice, req.SalePrice); err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, validationError("name must not be empty")
		}
		req.Name = &name
	}
	if req.Barcode != nil {
		barcode := strings.TrimSpace(*req.Barcode)
		req.Barcode = &barcode
	}
	return s.Repo.Update(ctx, id, req)
}

func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.Repo.Delete(ctx, id)
}

func checkPrices(purchase, sale *decimal.Decimal) error {
	if purchase != nil {
		if err := requireNonNegative("purchasePrice", *purchase); err != nil {
			return err
		}
	}
	if sale != nil {
		if err := requireNonNegative("salePrice", *sale); err != nil {
			return err
		}
	}
	return nil
}

func nonNilProducts(products []*models.Product, err error) ([]*models.Product, error) {
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []*models.Product{}
	}
	return products, nil
}

type VendorService struct {
	Repo        *repositories.VendorRepository
	PhoneRegion string
}

func NewVendorService(repo *repositories.VendorRepository, phoneRegion string) *VendorService {
	return &VendorService{Repo: repo, PhoneRegion: phoneRegion}
}

func (s *VendorService) CreateVendor(ctx context.Context, req *models.VendorRequest) (*models.Vendor, error) {
	vendor, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

func (s *VendorService) GetVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	return s.Repo.Get(ctx, id)
}

func (s *VendorService) ListVendors(ctx context.Context) ([]*models.Vendor, error) {
	vendors, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if vendors == nil {
		vendors = []*models.Vendor{}
	}
	return vendors, nil
}

func (s *VendorService) UpdateVendor(ctx context.Context, id uuid.UUID, req *models.VendorRequest) (*models.Vendor, error) {
	vendor, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	vendor.ID = id
	if err := s.Repo.Update(ctx, vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

func (s *VendorService) DeleteVendor(ctx context.Context, id uuid.UUID) error {
	return s.Repo.Delete(ctx, id)
}

func (s *VendorService) fromRequest(req *models.VendorRequest) (*models.Vendor, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	phone, err := utils.NormalizePhone(req.Phone, s.PhoneRegion)
	if err != nil {
		return nil, validationError("phone %q is not a valid number", req.Phone)
	}
	return &models.Vendor{
		Name:      strings.TrimSpace(req.Name),
		Phone:     phone,
		Address:   strings.TrimSpace(req.Address),
		CompanyID: req.CompanyID,
	}, nil
}

type CompanyService struct {
	Repo *repositories.CompanyRepository
}

func NewCompanyService(repo *repositories.CompanyRepository) *CompanyService {
	return &CompanyService{Repo: repo}
}

func (s *CompanyService) CreateCompany(ctx context.Context, req *models.CompanyRequest) (*models.Company, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	company := companyFromRequest(req)
	if err := s.Repo.Create(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

func (s *CompanyService) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	return s.Repo.Get(ctx, id)
}

func (s *CompanyService) ListCompanies(ctx context.Context) ([]*models.Company, error) {
	companies, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if companies == nil {
		companies = []*models.Company{}
	}
	return companies, nil
}

func (s *CompanyService) UpdateCompany(ctx context.Context, id uuid.UUID, req *models.CompanyRequest) (*models.Company, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	company := companyFromRequest(req)
	company.ID = id
	if err := s.Repo.Update(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

func (s *CompanyService) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	return s.Repo.Delete(ctx, id)
}

func companyFromRequest(req *models.CompanyRequest) *models.Company {
	return &models.Company{
		Name:      strings.TrimSpace(req.Name),
		Phone:     strings.TrimSpace(req.Phone),
		Address:   strings.TrimSpace(req.Address),
		TaxNumber: strings.TrimSpace(req.TaxNumber),
	}
}
