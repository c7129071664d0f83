package handlers

import (
	"net/http"

	"pos-backend/internal/models"
	"pos-backend/internal/services"
	"pos-backend/pkg/utils"
)

// PurchaseHandler serves purchase orders and the vendor payables.
type PurchaseHandler struct {
	Service *services.PurchaseService
}

func NewPurchaseHandler(s *services.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{Service: s}
}

func (h *PurchaseHandler) CreatePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePurchaseOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.Service.CreatePurchaseOrder(r.Context(), &req, actingUser(r), idempotencyKey(r))
	if err != nil {
		writeError(w, r, "PurchaseHandler", "CreatePurchaseOrder", err)
		return
	}
	if result.Replay {
		w.Header().Set("Idempotent-Replayed", "true")
	}
	utils.JSON(w, http.StatusCreated, result)
}

func (h *PurchaseHandler) GetPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.Service.GetPurchaseOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, "PurchaseHandler", "GetPurchaseOrder", err)
		return
	}
	utils.JSON(w, http.StatusOK, order)
}

// ListPurchaseOrders takes an optional ?vendorId=
func (h *PurchaseHandler) ListPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	vendorID, err := queryID(r, "vendorId")
	if err != nil {
		writeError(w, r, "PurchaseHandler", "ListPurchaseOrders", err)
		return
	}

	orders, err := h.Service.ListPurchaseOrders(r.Context(), vendorID)
	if err != nil {
		writeError(w, r, "PurchaseHandler", "ListPurchaseOrders", err)
		return
	}
	utils.JSON(w, http.StatusOK, orders)
}

func (h *PurchaseHandler) CreateMyDebt(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMyDebtRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	debt, err := h.Service.CreateMyDebt(r.Context(), &req)
	if err != nil {
		writeError(w, r, "PurchaseHandler", "CreateMyDebt", err)
		return
	}
	utils.JSON(w, http.StatusCreated, debt)
}

func (h *PurchaseHandler) UpdateMyDebt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.UpdateMyDebtRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	debt, err := h.Service.UpdateMyDebt(r.Context(), id, &req)
	if err != nil {
		writeError(w, r, "PurchaseHandler", "UpdateMyDebt", err)
		return
	}
	utils.JSON(w, http.StatusOK, debt)
}

func (h *PurchaseHandler) ListMyDebts(w http.ResponseWriter, r *http.Request) {
	vendorID, err := queryID(r, "vendorId")
	if err != nil {
		writeError(w, r, "PurchaseHandler", "ListMyDebts", err)
		return
	}

	debts, err := h.Service.ListMyDebts(r.Context(), vendorID)
	if err != nil {
		writeError(w, r, "PurchaseHandler", "ListMyDebts", err)
		return
	}
	utils.JSON(w, http.StatusOK, debts)
}

func (h *PurchaseHandler) CreateMyPayment(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMyPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	payment, err := h.Service.CreateMyPayment(r.Context(), &req)
	if err != nil {
		writeError(w, r, "PurchaseHandler", "CreateMyPayment", err)
		return
	}
	utils.JSON(w, http.StatusCreated, payment)
}

func (h *PurchaseHandler) ListMyPayments(w http.ResponseWriter, r *http.Request) {
	vendorID, err := queryID(r, "vendorId")
	if err != nil {
		writeError(w, r, "PurchaseHandler", "ListMyPayments", err)
		return
	}

	payments, err := h.Service.ListMyPayments(r.Context(), vendorID)
	if err != nil {
		writeError(w, r, "PurchaseHandler", "ListMyPayments", err)
		return
	}
	utils.JSON(w, http.StatusOK, payments)
}
