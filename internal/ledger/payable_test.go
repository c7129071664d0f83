package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"pos-backend/internal/models"
)

func TestSummarizePayables(t *testing.T) {
	vendor := uuid.New()
	first := &models.MyDebt{ID: uuid.New(), VendorID: vendor, Amount: dec("300"), Status: models.DebtStatusActive, CreatedAt: t0}
	second := &models.MyDebt{ID: uuid.New(), VendorID: vendor, Amount: dec("200"), Status: models.DebtStatusActive, CreatedAt: t0.Add(time.Hour)}
	cancelled := &models.MyDebt{ID: uuid.New(), VendorID: vendor, Amount: dec("999"), Status: models.DebtStatusCancelled}

	linked := &models.MyPayment{ID: uuid.New(), VendorID: vendor, MyDebtID: &second.ID, Amount: dec("200"), Status: models.PaymentStatusActive}
	onAccount := &models.MyPayment{ID: uuid.New(), VendorID: vendor, Amount: dec("100"), Status: models.PaymentStatusActive}
	void := &models.MyPayment{ID: uuid.New(), VendorID: vendor, Amount: dec("50"), Status: models.PaymentStatusCancelled}

	s := SummarizePayables(vendor, []*models.MyDebt{first, second, cancelled}, []*models.MyPayment{linked, onAccount, void})

	assert.Equal(t, "500", s.TotalDebt.String())
	assert.Equal(t, "300", s.TotalPaid.String())
	assert.Equal(t, "200", s.RemainingDebt.String())
	assert.Equal(t, 2, s.DebtCount)
	assert.Equal(t, 2, s.PaymentCount)
	assert.True(t, second.IsPaid)
	assert.False(t, first.IsPaid)
	assert.Equal(t, "200", first.RemainingAmount.String())
}
