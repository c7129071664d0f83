package handlers

import (
	"net/http"

	"pos-backend/internal/models"
	"pos-backend/internal/services"
	"pos-backend/pkg/utils"
)

// CartHandler serves the caller's server-side cart.
type CartHandler struct {
	Service *services.CartService
}

func NewCartHandler(s *services.CartService) *CartHandler {
	return &CartHandler{Service: s}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	cart, err := h.Service.GetCart(r.Context(), userID)
	if err != nil {
		writeError(w, r, "CartHandler", "GetCart", err)
		return
	}
	utils.JSON(w, http.StatusOK, cart)
}

func (h *CartHandler) SaveCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.SaveCartRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cart, err := h.Service.SaveCart(r.Context(), userID, &req)
	if err != nil {
		writeError(w, r, "CartHandler", "SaveCart", err)
		return
	}
	utils.JSON(w, http.StatusOK, cart)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.Service.ClearCart(r.Context(), userID); err != nil {
		writeError(w, r, "CartHandler", "ClearCart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout handles POST /api/cart/checkout
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.CartCheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.Service.Checkout(r.Context(), userID, &req, idempotencyKey(r))
	if err != nil {
		writeError(w, r, "CartHandler", "Checkout", err)
		return
	}
	writeCheckout(w, result)
}
