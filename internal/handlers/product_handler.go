package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"pos-backend/internal/models"
	"pos-backend/internal/services"
	"pos-backend/pkg/utils"
)

type ProductHandler struct {
	Service *services.ProductService
}

func NewProductHandler(s *services.ProductService) *ProductHandler {
	return &ProductHandler{Service: s}
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.Service.CreateProduct(r.Context(), &req)
	if err != nil {
		writeError(w, r, "ProductHandler", "CreateProduct", err)
		return
	}
	utils.JSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.Service.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, "ProductHandler", "GetProduct", err)
		return
	}
	utils.JSON(w, http.StatusOK, product)
}

// GetByBarcode is the terminal's scan lookup.
func (h *ProductHandler) GetByBarcode(w http.ResponseWriter, r *http.Request) {
	product, err := h.Service.GetByBarcode(r.Context(), mux.Vars(r)["barcode"])
	if err != nil {
		writeError(w, r, "ProductHandler", "GetByBarcode", err)
		return
	}
	utils.JSON(w, http.StatusOK, product)
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.ListProducts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, "ProductHandler", "ListProducts", err)
		return
	}
	utils.JSON(w, http.StatusOK, products)
}

func (h *ProductHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.ListLowStock(r.Context())
	if err != nil {
		writeError(w, r, "ProductHandler", "ListLowStock", err)
		return
	}
	utils.JSON(w, http.StatusOK, products)
}

// UpdateProduct handles PATCH /api/products/{id} and PATCH /api/products,
// where the id travels in the body.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProductRequest
	_, inPath := pathVar(r, "id")
	if inPath {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		req.ID = &id
	} else if !decodeJSON(w, r, &req) {
		return
	}
	if req.ID == nil {
		writeError(w, r, "ProductHandler", "UpdateProduct", fmt.Errorf("%w: id is required", services.ErrValidation))
		return
	}

	product, err := h.Service.UpdateProduct(r.Context(), *req.ID, &req)
	if err != nil {
		writeError(w, r, "ProductHandler", "UpdateProduct", err)
		return
	}
	utils.JSON(w, http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.DeleteProduct(r.Context(), id); err != nil {
		writeError(w, r, "ProductHandler", "DeleteProduct", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
