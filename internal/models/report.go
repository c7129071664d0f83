package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SalesTotals struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type TopProduct struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// Dashboard is the analytics summary behind GET /api/reports/dashboard
type Dashboard struct {
	Today            SalesTotals     `json:"today"`
	Month            SalesTotals     `json:"month"`
	TotalReceivables decimal.Decimal `json:"totalReceivables"`
	DebtorCount      int             `json:"debtorCount"`
	TotalPayables    decimal.Decimal `json:"totalPayables"`
	LowStockCount    int             `json:"lowStockCount"`
	TopProducts      []TopProduct    `json:"topProducts"`
	GeneratedAt      time.Time       `json:"generatedAt"`
}

// DebtorRow is one customer with an outstanding balance.
type DebtorRow struct {
	CustomerID    uuid.UUID       `json:"customerId"`
	Name          string          `json:"name"`
	Phone         string          `json:"phone"`
	TotalDebt     decimal.Decimal `json:"totalDebt"`
	TotalRefunded decimal.Decimal `json:"totalRefunded"`
	TotalPaid     decimal.Decimal `json:"totalPaid"`
	RemainingDebt decimal.Decimal `json:"remainingDebt"`
}

type ArchiveResult struct {
	Keys []string `json:"keys"`
}
