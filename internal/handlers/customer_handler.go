package handlers

import (
	"net/http"

	"pos-backend/internal/models"
	"pos-backend/internal/services"
	"pos-backend/pkg/utils"
)

type CustomerHandler struct {
	Service *services.CustomerService
}

func NewCustomerHandler(s *services.CustomerService) *CustomerHandler {
	return &CustomerHandler{Service: s}
}

func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req models.CustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	customer, err := h.Service.CreateCustomer(r.Context(), &req)
	if err != nil {
		writeError(w, r, "CustomerHandler", "CreateCustomer", err)
		return
	}
	utils.JSON(w, http.StatusCreated, customer)
}

func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	customer, err := h.Service.GetCustomer(r.Context(), id)
	if err != nil {
		writeError(w, r, "CustomerHandler", "GetCustomer", err)
		return
	}
	utils.JSON(w, http.StatusOK, customer)
}

// ListCustomers searches by name or phone with ?q=
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Service.ListCustomers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, "CustomerHandler", "ListCustomers", err)
		return
	}
	utils.JSON(w, http.StatusOK, customers)
}

func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.CustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	customer, err := h.Service.UpdateCustomer(r.Context(), id, &req)
	if err != nil {
		writeError(w, r, "CustomerHandler", "UpdateCustomer", err)
		return
	}
	utils.JSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.DeleteCustomer(r.Context(), id); err != nil {
		writeError(w, r, "CustomerHandler", "DeleteCustomer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CustomerHandler) CreateSubCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.SubCustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sub, err := h.Service.CreateSubCustomer(r.Context(), customerID, &req)
	if err != nil {
		writeError(w, r, "CustomerHandler", "CreateSubCustomer", err)
		return
	}
	utils.JSON(w, http.StatusCreated, sub)
}

func (h *CustomerHandler) ListSubCustomers(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	subs, err := h.Service.ListSubCustomers(r.Context(), customerID)
	if err != nil {
		writeError(w, r, "CustomerHandler", "ListSubCustomers", err)
		return
	}
	utils.JSON(w, http.StatusOK, subs)
}

func (h *CustomerHandler) GetSubCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	sub, err := h.Service.GetSubCustomer(r.Context(), id)
	if err != nil {
		writeError(w, r, "CustomerHandler", "GetSubCustomer", err)
		return
	}
	utils.JSON(w, http.StatusOK, sub)
}

func (h *CustomerHandler) UpdateSubCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.SubCustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sub, err := h.Service.UpdateSubCustomer(r.Context(), id, &req)
	if err != nil {
		writeError(w, r, "CustomerHandler", "UpdateSubCustomer", err)
		return
	}
	utils.JSON(w, http.StatusOK, sub)
}

// DeleteSubCustomer soft-deletes; the account must be settled first.
func (h *CustomerHandler) DeleteSubCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.DeleteSubCustomer(r.Context(), id); err != nil {
		writeError(w, r, "CustomerHandler", "DeleteSubCustomer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CustomerHandler) SubCustomerBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	summary, err := h.Service.SubCustomerBalance(r.Context(), id)
	if err != nil {
		writeError(w, r, "CustomerHandler", "SubCustomerBalance", err)
		return
	}
	utils.JSON(w, http.StatusOK, summary)
}

func (h *CustomerHandler) CloseSubCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	sub, err := h.Service.CloseSubCustomer(r.Context(), id)
	if err != nil {
		writeError(w, r, "CustomerHandler", "CloseSubCustomer", err)
		return
	}
	utils.JSON(w, http.StatusOK, sub)
}

func (h *CustomerHandler) OpenSubCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	sub, err := h.Service.OpenSubCustomer(r.Context(), id)
	if err != nil {
		writeError(w, r, "CustomerHandler", "OpenSubCustomer", err)
		return
	}
	utils.JSON(w, http.StatusOK, sub)
}
