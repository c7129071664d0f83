package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Barcode       string          `json:"barcode"`
	Category      string          `json:"category"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	SalePrice     decimal.Decimal `json:"salePrice"`
	Stock         int             `json:"stock"`
	MinStock      int             `json:"minStock"`
	Unit          string          `json:"unit"`
	VendorID      *uuid.UUID      `json:"vendorId,omitempty"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// IsLowStock reports whether stock has reached the reorder threshold.
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}

// CreateProductRequest represents the request body for creating a product
type CreateProductRequest struct {
	Name          string          `json:"name" validate:"required,max=200"`
	Barcode       string          `json:"barcode" validate:"max=64"`
	Category      string          `json:"category" validate:"max=100"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	SalePrice     decimal.Decimal `json:"salePrice"`
	Stock         int             `json:"stock" validate:"min=0"`
	MinStock      int             `json:"minStock" validate:"min=0"`
	Unit          string          `json:"unit" validate:"max=16"`
	VendorID      *uuid.UUID      `json:"vendorId,omitempty"`
}

// UpdateProductRequest is a partial update; nil fields are left unchanged.
// ID is only read by PATCH /api/products, which carries it in the body.
type UpdateProductRequest struct {
	ID            *uuid.UUID       `json:"id,omitempty"`
	Name          *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Barcode       *string          `json:"barcode,omitempty" validate:"omitempty,max=64"`
	Category      *string          `json:"category,omitempty" validate:"omitempty,max=100"`
	PurchasePrice *decimal.Decimal `json:"purchasePrice,omitempty"`
	SalePrice     *decimal.Decimal `json:"salePrice,omitempty"`
	Stock         *int             `json:"stock,omitempty" validate:"omitempty,min=0"`
	MinStock      *int             `json:"minStock,omitempty" validate:"omitempty,min=0"`
	Unit          *string          `json:"unit,omitempty" validate:"omitempty,max=16"`
	VendorID      *uuid.UUID       `json:"vendorId,omitempty"`
}

type Vendor struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Address   string     `json:"address"`
	CompanyID *uuid.UUID `json:"companyId,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type VendorRequest struct {
	Name      string     `json:"name" validate:"required,max=200"`
	Phone     string     `json:"phone" validate:"max=32"`
	Address   string     `json:"address"`
	CompanyID *uuid.UUID `json:"companyId,omitempty"`
}
