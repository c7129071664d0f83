package handlers

import (
	"io"
	"net/http"

	"pos-backend/internal/models"
	"pos-backend/internal/services"
	"pos-backend/pkg/utils"
)

type RazorpayHandler struct {
	Service *services.RazorpayService
}

func NewRazorpayHandler(service *services.RazorpayService) *RazorpayHandler {
	return &RazorpayHandler{Service: service}
}

// CreateOrder handles POST /api/online-payments/orders
func (h *RazorpayHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOnlineOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.Service.CreateOrder(r.Context(), &req)
	if err != nil {
		writeError(w, r, "RazorpayHandler", "CreateOrder", err)
		return
	}
	utils.JSON(w, http.StatusCreated, order)
}

// VerifyPayment handles POST /api/online-payments/verify after the
// checkout widget returns.
func (h *RazorpayHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyOnlinePaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tx, err := h.Service.VerifyPayment(r.Context(), &req)
	if err != nil {
		writeError(w, r, "RazorpayHandler", "VerifyPayment", err)
		return
	}
	utils.JSON(w, http.StatusOK, tx)
}

// Webhook handles POST /webhooks/razorpay. The signature covers the raw
// body, so it is read before any decoding.
func (h *RazorpayHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.HandleWebhook(r.Context(), body, r.Header.Get("X-Razorpay-Signature")); err != nil {
		writeError(w, r, "RazorpayHandler", "Webhook", err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
