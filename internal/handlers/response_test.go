package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-backend/internal/ledger"
	"pos-backend/internal/repositories"
	"pos-backend/internal/services"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: name is required", services.ErrValidation), http.StatusBadRequest},
		{ledger.ErrInvalidAmount, http.StatusBadRequest},
		{repositories.ErrInvalidReference, http.StatusBadRequest},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrTOTPRequired, http.StatusUnauthorized},
		{services.ErrUserInactive, http.StatusForbidden},
		{fmt.Errorf("failed to load debt: %w", repositories.ErrNotFound), http.StatusNotFound},
		{ledger.ErrProductNotFound, http.StatusNotFound},
		{ledger.ErrInsufficientStock, http.StatusConflict},
		{fmt.Errorf("%w: remaining 60.00", ledger.ErrPaidFlagMismatch), http.StatusConflict},
		{repositories.ErrReferenced, http.StatusConflict},
		{repositories.ErrDuplicate, http.StatusConflict},
		{services.ErrPaymentsDisabled, http.StatusServiceUnavailable},
		{services.ErrStorageDisabled, http.StatusServiceUnavailable},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, statusFor(tt.err))
		})
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestWriteErrorHidesInternalErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/sales", nil)

	rec := httptest.NewRecorder()
	writeError(rec, req, "SaleHandler", "ListSales", errors.New("pq: relation does not exist"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decodeError(t, rec))

	rec = httptest.NewRecorder()
	writeError(rec, req, "SaleHandler", "ListSales", ledger.ErrInsufficientStock)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "insufficient stock", decodeError(t, rec))
}

func TestPathID(t *testing.T) {
	id := uuid.New()
	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": id.String()})
	rec := httptest.NewRecorder()
	got, ok := pathID(rec, req, "id")
	assert.True(t, ok)
	assert.Equal(t, id, got)

	req = mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": "42"})
	rec = httptest.NewRecorder()
	_, ok = pathID(rec, req, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid id", decodeError(t, rec))
}

func TestQueryHelpers(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/?customerId="+id.String()+"&limit=20&offset=x", nil)

	got, err := queryID(req, "customerId")
	require.NoError(t, err)
	assert.Equal(t, id, *got)

	missing, err := queryID(req, "vendorId")
	require.NoError(t, err)
	assert.Nil(t, missing)

	limit, err := queryInt(req, "limit")
	require.NoError(t, err)
	assert.Equal(t, 20, limit)

	_, err = queryInt(req, "offset")
	assert.ErrorIs(t, err, services.ErrValidation)

	bad := httptest.NewRequest(http.MethodGet, "/?customerId=nope", nil)
	_, err = queryID(bad, "customerId")
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestDecodeJSONRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	var v map[string]any
	assert.False(t, decodeJSON(rec, req, &v))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", decodeError(t, rec))
}

func TestDebtQuery(t *testing.T) {
	customerID := uuid.New()
	sub := uuid.New()
	req := httptest.NewRequest(http.MethodGet,
		"/?subCustomerId="+sub.String()+"&filter=debts&search=rice&from=2024-03-01&to=2024-03-31", nil)

	q, err := debtQuery(req, customerID)
	require.NoError(t, err)
	assert.Equal(t, customerID, q.CustomerID)
	assert.Equal(t, sub, *q.SubCustomerID)
	assert.Equal(t, "debts", q.Filter)
	assert.Equal(t, "rice", q.Search)
	require.NotNil(t, q.From)
	require.NotNil(t, q.To)
	assert.Equal(t, 1, q.To.Day())

	req = httptest.NewRequest(http.MethodGet, "/?from=2024-03-10&to=2024-03-01", nil)
	_, err = debtQuery(req, customerID)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestHandlersRejectBadInputBeforeServices(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		method  string
		target  string
		vars    map[string]string
		body    string
		status  int
	}{
		{"customer bad id", (&CustomerHandler{}).GetCustomer, http.MethodGet, "/", map[string]string{"id": "x"}, "", http.StatusBadRequest},
		{"debt summary bad id", (&DebtHandler{}).GetCustomerSummary, http.MethodGet, "/", map[string]string{"customerId": "x"}, "", http.StatusBadRequest},
		{"payments without customer", (&DebtHandler{}).ListPayments, http.MethodGet, "/", nil, "", http.StatusBadRequest},
		{"sale bad body", (&SaleHandler{}).Checkout, http.MethodPost, "/", nil, "[", http.StatusBadRequest},
		{"cancel sale without id", (&SaleHandler{}).CancelSale, http.MethodDelete, "/", nil, "", http.StatusBadRequest},
		{"product patch without id", (&ProductHandler{}).UpdateProduct, http.MethodPatch, "/", nil, `{"name":"x"}`, http.StatusBadRequest},
		{"cart without user", (&CartHandler{}).GetCart, http.MethodGet, "/", nil, "", http.StatusUnauthorized},
		{"totp without user", (&TOTPHandler{}).SetupTOTP, http.MethodPost, "/", nil, "", http.StatusUnauthorized},
		{"statement bad sub-customer", (&ReportHandler{}).Statement, http.MethodGet, "/?subCustomerId=bad", map[string]string{"id": uuid.NewString()}, "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, bytes.NewBufferString(tt.body))
			if tt.vars != nil {
				req = mux.SetURLVars(req, tt.vars)
			}
			rec := httptest.NewRecorder()
			tt.handler(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
