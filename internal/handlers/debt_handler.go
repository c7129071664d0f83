package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"pos-backend/internal/models"
	"pos-backend/internal/services"
	"pos-backend/internal/timeutil"
	"pos-backend/pkg/utils"
)

// DebtHandler serves debts, refunds and customer payments.
type DebtHandler struct {
	DebtService *services.DebtService
}

func NewDebtHandler(debtService *services.DebtService) *DebtHandler {
	return &DebtHandler{DebtService: debtService}
}

// debtQuery reads subCustomerId, filter, search, from and to.
func debtQuery(r *http.Request, customerID uuid.UUID) (models.DebtQuery, error) {
	q := models.DebtQuery{
		CustomerID: customerID,
		Filter:     r.URL.Query().Get("filter"),
		Search:     r.URL.Query().Get("search"),
	}
	sub, err := queryID(r, "subCustomerId")
	if err != nil {
		return q, err
	}
	q.SubCustomerID = sub

	from, to, err := timeutil.DateRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		return q, fmt.Errorf("%w: %v", services.ErrValidation, err)
	}
	q.From, q.To = from, to
	return q, nil
}

// GetCustomerSummary handles GET /api/debts/customer/{customerId}
func (h *DebtHandler) GetCustomerSummary(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathID(w, r, "customerId")
	if !ok {
		return
	}
	q, err := debtQuery(r, customerID)
	if err != nil {
		writeError(w, r, "DebtHandler", "GetCustomerSummary", err)
		return
	}

	summary, err := h.DebtService.Summary(r.Context(), q)
	if err != nil {
		writeError(w, r, "DebtHandler", "GetCustomerSummary", err)
		return
	}
	utils.JSON(w, http.StatusOK, summary)
}

// CreateDebt handles POST /api/debts/customer/{customerId}
func (h *DebtHandler) CreateDebt(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathID(w, r, "customerId")
	if !ok {
		return
	}
	var req models.CreateDebtRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	debt, err := h.DebtService.CreateDebt(r.Context(), customerID, &req)
	if err != nil {
		writeError(w, r, "DebtHandler", "CreateDebt", err)
		return
	}
	utils.JSON(w, http.StatusCreated, debt)
}

func (h *DebtHandler) GetDebt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	debt, err := h.DebtService.GetDebt(r.Context(), id)
	if err != nil {
		writeError(w, r, "DebtHandler", "GetDebt", err)
		return
	}
	utils.JSON(w, http.StatusOK, debt)
}

// UpdateDebt handles PATCH /api/debts/{id}. isPaid is only accepted when
// it agrees with the derived value.
func (h *DebtHandler) UpdateDebt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.UpdateDebtRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	debt, err := h.DebtService.UpdateDebt(r.Context(), id, &req)
	if err != nil {
		writeError(w, r, "DebtHandler", "UpdateDebt", err)
		return
	}
	utils.JSON(w, http.StatusOK, debt)
}

// CancelDebt handles DELETE /api/debts/{id}
func (h *DebtHandler) CancelDebt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	debt, err := h.DebtService.CancelDebt(r.Context(), id)
	if err != nil {
		writeError(w, r, "DebtHandler", "CancelDebt", err)
		return
	}
	utils.JSON(w, http.StatusOK, debt)
}

func (h *DebtHandler) CreateRefund(w http.ResponseWriter, r *http.Request) {
	debtID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.CreateRefundRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	refund, err := h.DebtService.CreateRefund(r.Context(), debtID, &req)
	if err != nil {
		writeError(w, r, "DebtHandler", "CreateRefund", err)
		return
	}
	utils.JSON(w, http.StatusCreated, refund)
}

func (h *DebtHandler) ListRefunds(w http.ResponseWriter, r *http.Request) {
	debtID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	refunds, err := h.DebtService.ListRefunds(r.Context(), debtID)
	if err != nil {
		writeError(w, r, "DebtHandler", "ListRefunds", err)
		return
	}
	utils.JSON(w, http.StatusOK, refunds)
}

// CancelRefund handles DELETE /api/refunds/{id}
func (h *DebtHandler) CancelRefund(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	refund, err := h.DebtService.CancelRefund(r.Context(), id)
	if err != nil {
		writeError(w, r, "DebtHandler", "CancelRefund", err)
		return
	}
	utils.JSON(w, http.StatusOK, refund)
}

func (h *DebtHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	payment, err := h.DebtService.CreatePayment(r.Context(), &req)
	if err != nil {
		writeError(w, r, "DebtHandler", "CreatePayment", err)
		return
	}
	utils.JSON(w, http.StatusCreated, payment)
}

// ListPayments handles GET /api/payments?customerId=...
func (h *DebtHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	customerID, err := queryID(r, "customerId")
	if err == nil && customerID == nil {
		err = fmt.Errorf("%w: customerId is required", services.ErrValidation)
	}
	if err != nil {
		writeError(w, r, "DebtHandler", "ListPayments", err)
		return
	}
	q, err := debtQuery(r, *customerID)
	if err != nil {
		writeError(w, r, "DebtHandler", "ListPayments", err)
		return
	}

	payments, err := h.DebtService.ListPayments(r.Context(), q)
	if err != nil {
		writeError(w, r, "DebtHandler", "ListPayments", err)
		return
	}
	utils.JSON(w, http.StatusOK, payments)
}

// CancelPayment handles POST /api/payments/{id}/cancel
func (h *DebtHandler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	payment, err := h.DebtService.CancelPayment(r.Context(), id)
	if err != nil {
		writeError(w, r, "DebtHandler", "CancelPayment", err)
		return
	}
	utils.JSON(w, http.StatusOK, payment)
}
