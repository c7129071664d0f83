package handlers

import (
	"context"
	"net/http"
	"time"

	"pos-backend/internal/services"
	"pos-backend/internal/timeutil"
	"pos-backend/pkg/utils"
)

type ReportHandler struct {
	Service *services.ReportService
}

func NewReportHandler(service *services.ReportService) *ReportHandler {
	return &ReportHandler{Service: service}
}

func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.Service.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, "ReportHandler", "Dashboard", err)
		return
	}
	utils.JSON(w, http.StatusOK, dashboard)
}

// DebtorsCSV handles GET /api/reports/debtors.csv
func (h *ReportHandler) DebtorsCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	data, err := h.Service.DebtorsCSV(ctx)
	if err != nil {
		writeError(w, r, "ReportHandler", "DebtorsCSV", err)
		return
	}
	writeFile(w, services.ContentTypeCSV, "debtors_"+timeutil.Now().Format("2006-01-02")+".csv", data)
}

// SalesXLSX handles GET /api/reports/sales.xlsx?from=&to=
func (h *ReportHandler) SalesXLSX(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	data, err := h.Service.SalesXLSX(ctx, from, to)
	if err != nil {
		writeError(w, r, "ReportHandler", "SalesXLSX", err)
		return
	}
	writeFile(w, services.ContentTypeXLSX, "sales_"+timeutil.Now().Format("2006-01-02")+".xlsx", data)
}

// Statement handles GET /api/reports/customers/{id}/statement.pdf
func (h *ReportHandler) Statement(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	subCustomerID, err := queryID(r, "subCustomerId")
	if err != nil {
		writeError(w, r, "ReportHandler", "Statement", err)
		return
	}

	data, err := h.Service.StatementPDF(r.Context(), customerID, subCustomerID)
	if err != nil {
		writeError(w, r, "ReportHandler", "Statement", err)
		return
	}
	writeFile(w, services.ContentTypePDF, "statement-"+customerID.String()[:8]+".pdf", data)
}

// Archive handles POST /api/reports/archive
func (h *ReportHandler) Archive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 120*time.Second)
	defer cancel()

	result, err := h.Service.Archive(ctx)
	if err != nil {
		writeError(w, r, "ReportHandler", "Archive", err)
		return
	}
	utils.JSON(w, http.StatusOK, result)
}
