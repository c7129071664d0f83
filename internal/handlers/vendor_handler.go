package handlers

import (
	"net/http"

	"pos-backend/internal/models"
	"pos-backend/internal/services"
	"pos-backend/pkg/utils"
)

type VendorHandler struct {
	Service   *services.VendorService
	Purchases *services.PurchaseService
}

func NewVendorHandler(s *services.VendorService, purchases *services.PurchaseService) *VendorHandler {
	return &VendorHandler{Service: s, Purchases: purchases}
}

func (h *VendorHandler) CreateVendor(w http.ResponseWriter, r *http.Request) {
	var req models.VendorRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	vendor, err := h.Service.CreateVendor(r.Context(), &req)
	if err != nil {
		writeError(w, r, "VendorHandler", "CreateVendor", err)
		return
	}
	utils.JSON(w, http.StatusCreated, vendor)
}

func (h *VendorHandler) GetVendor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	vendor, err := h.Service.GetVendor(r.Context(), id)
	if err != nil {
		writeError(w, r, "VendorHandler", "GetVendor", err)
		return
	}
	utils.JSON(w, http.StatusOK, vendor)
}

func (h *VendorHandler) ListVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.Service.ListVendors(r.Context())
	if err != nil {
		writeError(w, r, "VendorHandler", "ListVendors", err)
		return
	}
	utils.JSON(w, http.StatusOK, vendors)
}

func (h *VendorHandler) UpdateVendor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.VendorRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	vendor, err := h.Service.UpdateVendor(r.Context(), id, &req)
	if err != nil {
		writeError(w, r, "VendorHandler", "UpdateVendor", err)
		return
	}
	utils.JSON(w, http.StatusOK, vendor)
}

func (h *VendorHandler) DeleteVendor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.DeleteVendor(r.Context(), id); err != nil {
		writeError(w, r, "VendorHandler", "DeleteVendor", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VendorBalance handles GET /api/vendors/{id}/balance
func (h *VendorHandler) VendorBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.Service.GetVendor(r.Context(), id); err != nil {
		writeError(w, r, "VendorHandler", "VendorBalance", err)
		return
	}

	summary, err := h.Purchases.VendorBalance(r.Context(), id)
	if err != nil {
		writeError(w, r, "VendorHandler", "VendorBalance", err)
		return
	}
	utils.JSON(w, http.StatusOK, summary)
}
