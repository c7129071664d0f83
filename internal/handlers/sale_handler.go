package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"pos-backend/internal/middleware"
	"pos-backend/internal/models"
	"pos-backend/internal/services"
	"pos-backend/internal/timeutil"
	"pos-backend/pkg/utils"
)

type SaleHandler struct {
	Service *services.SaleService
	Reports *services.ReportService
}

func NewSaleHandler(s *services.SaleService, reports *services.ReportService) *SaleHandler {
	return &SaleHandler{Service: s, Reports: reports}
}

func actingUser(r *http.Request) *uuid.UUID {
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		return &id
	}
	return nil
}

// writeCheckout answers 201; a replayed key is flagged in a header.
func writeCheckout(w http.ResponseWriter, result *models.CheckoutResult) {
	if result.Replay {
		w.Header().Set("Idempotent-Replayed", "true")
	}
	utils.JSON(w, http.StatusCreated, result)
}

// Checkout handles POST /api/sales
func (h *SaleHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.Service.Checkout(r.Context(), &req, actingUser(r), idempotencyKey(r))
	if err != nil {
		writeError(w, r, "SaleHandler", "Checkout", err)
		return
	}
	writeCheckout(w, result)
}

func (h *SaleHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	sale, err := h.Service.GetSale(r.Context(), id)
	if err != nil {
		writeError(w, r, "SaleHandler", "GetSale", err)
		return
	}
	utils.JSON(w, http.StatusOK, sale)
}

// ListSales handles GET /api/sales?customerId=&from=&to=&status=&limit=&offset=
func (h *SaleHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	f, err := saleFilter(r)
	if err != nil {
		writeError(w, r, "SaleHandler", "ListSales", err)
		return
	}

	sales, err := h.Service.ListSales(r.Context(), f)
	if err != nil {
		writeError(w, r, "SaleHandler", "ListSales", err)
		return
	}
	utils.JSON(w, http.StatusOK, sales)
}

func saleFilter(r *http.Request) (models.SaleFilter, error) {
	var f models.SaleFilter
	var err error
	if f.CustomerID, err = queryID(r, "customerId"); err != nil {
		return f, err
	}
	if f.From, f.To, err = timeutil.DateRange(r.URL.Query().Get("from"), r.URL.Query().Get("to")); err != nil {
		return f, fmt.Errorf("%w: %v", services.ErrValidation, err)
	}
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(r, "offset"); err != nil {
		return f, err
	}
	f.Status = strings.TrimSpace(r.URL.Query().Get("status"))
	return f, nil
}

// CancelSale handles DELETE /api/sales/{id} and DELETE /api/sales?id=
func (h *SaleHandler) CancelSale(w http.ResponseWriter, r *http.Request) {
	var id uuid.UUID
	if _, inPath := pathVar(r, "id"); inPath {
		var ok bool
		if id, ok = pathID(w, r, "id"); !ok {
			return
		}
	} else {
		qid, err := queryID(r, "id")
		if err == nil && qid == nil {
			err = fmt.Errorf("%w: id is required", services.ErrValidation)
		}
		if err != nil {
			writeError(w, r, "SaleHandler", "CancelSale", err)
			return
		}
		id = *qid
	}

	sale, err := h.Service.CancelSale(r.Context(), id)
	if err != nil {
		writeError(w, r, "SaleHandler", "CancelSale", err)
		return
	}
	utils.JSON(w, http.StatusOK, sale)
}

// Receipt handles GET /api/sales/{id}/receipt.pdf
func (h *SaleHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	pdf, err := h.Reports.ReceiptPDF(r.Context(), id)
	if err != nil {
		writeError(w, r, "SaleHandler", "Receipt", err)
		return
	}
	writeFile(w, services.ContentTypePDF, "receipt-"+id.String()[:8]+".pdf", pdf)
}
