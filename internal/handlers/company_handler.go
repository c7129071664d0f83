package handlers

import (
	"net/http"

	"pos-backend/internal/models"
	"pos-backend/internal/services"
	"pos-backend/pkg/utils"
)

type CompanyHandler struct {
	Service *services.CompanyService
}

func NewCompanyHandler(s *services.CompanyService) *CompanyHandler {
	return &CompanyHandler{Service: s}
}

func (h *CompanyHandler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req models.CompanyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	company, err := h.Service.CreateCompany(r.Context(), &req)
	if err != nil {
		writeError(w, r, "CompanyHandler", "CreateCompany", err)
		return
	}
	utils.JSON(w, http.StatusCreated, company)
}

func (h *CompanyHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	company, err := h.Service.GetCompany(r.Context(), id)
	if err != nil {
		writeError(w, r, "CompanyHandler", "GetCompany", err)
		return
	}
	utils.JSON(w, http.StatusOK, company)
}

func (h *CompanyHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.Service.ListCompanies(r.Context())
	if err != nil {
		writeError(w, r, "CompanyHandler", "ListCompanies", err)
		return
	}
	utils.JSON(w, http.StatusOK, companies)
}

func (h *CompanyHandler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.CompanyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	company, err := h.Service.UpdateCompany(r.Context(), id, &req)
	if err != nil {
		writeError(w, r, "CompanyHandler", "UpdateCompany", err)
		return
	}
	utils.JSON(w, http.StatusOK, company)
}

func (h *CompanyHandler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.DeleteCompany(r.Context(), id); err != nil {
		writeError(w, r, "CompanyHandler", "DeleteCompany", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
