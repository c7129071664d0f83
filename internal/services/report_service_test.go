package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pos-backend/internal/ledger"
	"pos-backend/internal/models"
)

func TestBuildDebtorsCSV(t *testing.T) {
	rows := []models.DebtorRow{
		{
			CustomerID:    uuid.New(),
			Name:          "Asha, Traders",
			Phone:         "+919876543210",
			TotalDebt:     money("150"),
			TotalRefunded: money("10"),
			TotalPaid:     money("40.5"),
			RemainingDebt: money("99.5"),
		},
	}

	data, err := buildDebtorsCSV(rows)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Customer", "Phone", "Total Debt", "Refunded", "Paid", "Remaining"}, records[0])
	assert.Equal(t, []string{"Asha, Traders", "+919876543210", "150.00", "10.00", "40.50", "99.50"}, records[1])
}

func TestBuildDebtorsCSVEmpty(t *testing.T) {
	data, err := buildDebtorsCSV(nil)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestBuildSalesXLSX(t *testing.T) {
	sale := &models.Sale{
		ID:          uuid.New(),
		TotalAmount: money("51"),
		PaidAmount:  money("51"),
		PaymentType: models.PaymentTypeCash,
		Status:      models.SaleStatusCompleted,
		CreatedAt:   baseTime,
		Items: []models.SaleItem{
			{Name: "Rice 1kg", Barcode: "890001", Quantity: 2, UnitPrice: money("25.5"), Total: money("51")},
		},
	}

	data, err := buildSalesXLSX([]*models.Sale{sale})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Sales", "Items"}, f.GetSheetList())

	id, err := f.GetCellValue("Sales", "A2")
	require.NoError(t, err)
	assert.Equal(t, sale.ID.String(), id)

	status, err := f.GetCellValue("Sales", "D2")
	require.NoError(t, err)
	assert.Equal(t, "completed", status)

	name, err := f.GetCellValue("Items", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Rice 1kg", name)

	qty, err := f.GetCellValue("Items", "D2")
	require.NoError(t, err)
	assert.Equal(t, "2", qty)

	price, err := f.GetCellValue("Items", "E2")
	require.NoError(t, err)
	assert.Equal(t, "25.5", price)
}

func TestBuildStatementEntries(t *testing.T) {
	customerID := uuid.New()
	debt := newDebt(customerID, "100", 0)
	payment := newPayment(customerID, "40", &debt.ID)
	refund := &models.Refund{
		ID:          uuid.New(),
		DebtID:      debt.ID,
		CustomerID:  customerID,
		ProductName: "Soap",
		Quantity:    1,
		Amount:      money("10"),
		Status:      models.RefundStatusActive,
		CreatedAt:   baseTime.Add(2 * time.Hour),
	}

	l := ledger.Build(ledger.Scope{CustomerID: customerID},
		[]*models.Debt{debt}, []*models.CustomerPayment{payment}, []*models.Refund{refund})

	entries := buildStatementEntries(l)
	require.Len(t, entries, 3)

	assert.Equal(t, "Debt", entries[0].Kind)
	assert.True(t, entries[0].Balance.Equal(money("100")))

	// same timestamp as the debt, listed after it
	assert.Equal(t, "Payment", entries[1].Kind)
	assert.True(t, entries[1].Balance.Equal(money("60")))

	assert.Equal(t, "Refund", entries[2].Kind)
	assert.Equal(t, "Soap x1", entries[2].Description)
	assert.True(t, entries[2].Balance.Equal(money("50")))
}

func TestBuildStatementPDF(t *testing.T) {
	customer := &models.Customer{ID: uuid.New(), Name: "Ravi", Phone: "+919812345678"}
	entries := []StatementEntry{
		{Date: baseTime, Kind: "Debt", Description: "Sale: Rice 1kg x2", Debit: money("51"), Balance: money("51")},
	}
	sum := ledger.Summary{TotalDebt: money("51"), RemainingDebt: money("51")}

	data, err := buildStatementPDF("Corner Store", customer, entries, sum, baseTime)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	empty, err := buildStatementPDF("Corner Store", customer, nil, ledger.Summary{}, baseTime)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(empty, []byte("%PDF")))
}

func TestBuildReceiptPDF(t *testing.T) {
	sale := &models.Sale{
		ID:          uuid.New(),
		TotalAmount: money("100"),
		PaidAmount:  money("30"),
		PaymentType: models.PaymentTypeCredit,
		Status:      models.SaleStatusCompleted,
		CreatedAt:   baseTime,
		Items: []models.SaleItem{
			{Name: "A very long product name that will be cut short", Quantity: 4, UnitPrice: money("25"), Total: money("100")},
		},
	}

	data, err := buildReceiptPDF("Corner Store", sale, &models.Customer{Name: "Ravi"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	data, err = buildReceiptPDF("Corner Store", sale, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestSalesRange(t *testing.T) {
	start, end, err := salesRange("2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.Equal(t, 1, start.Day())
	assert.Equal(t, time.April, end.Month())
	assert.Equal(t, 1, end.Day())

	start, end, err = salesRange("", "")
	require.NoError(t, err)
	assert.True(t, start.Before(end))

	_, _, err = salesRange("2024-03-10", "2024-03-01")
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = salesRange("03/10/2024", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestArchiveWithoutStorage(t *testing.T) {
	svc := &ReportService{}
	_, err := svc.Archive(context.Background())
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd.", truncate("abcdefgh", 5))
}
