package models

import (
	"time"

	"github.com/google/uuid"
)

type Company struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	TaxNumber string    `json:"taxNumber"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CompanyRequest is used for both create and update
type CompanyRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	Phone     string `json:"phone" validate:"max=32"`
	Address   string `json:"address"`
	TaxNumber string `json:"taxNumber" validate:"max=64"`
}
