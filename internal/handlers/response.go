package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"pos-backend/internal/config"
	"pos-backend/internal/ledger"
	"pos-backend/internal/middleware"
	"pos-backend/internal/repositories"
	"pos-backend/internal/services"
	"pos-backend/pkg/utils"
)

const maxBodyBytes = 1 << 20

var logger = logrus.StandardLogger()

// SetLogger replaces the logger used for 5xx responses.
func SetLogger(l *logrus.Logger) {
	if l != nil {
		logger = l
	}
}

var (
	badRequest = []error{
		services.ErrValidation,
		ledger.ErrInvalidAmount,
		ledger.ErrPaidExceedsTotal,
		ledger.ErrCustomerRequired,
		ledger.ErrSubCustomerMismatch,
		repositories.ErrInvalidReference,
		services.ErrInvalidSignature,
		services.ErrAmountExceedsBalance,
	}
	unauthorized = []error{
		services.ErrInvalidCredentials,
		services.ErrTOTPRequired,
		services.ErrInvalidTOTPCode,
		services.ErrInvalidPassword,
	}
	forbidden = []error{
		services.ErrUserInactive,
		services.ErrSelfDelete,
	}
	notFound = []error{
		repositories.ErrNotFound,
		ledger.ErrProductNotFound,
	}
	conflict = []error{
		ledger.ErrInsufficientStock,
		ledger.ErrRefundExceedsDebt,
		ledger.ErrRefundQuantityExceeded,
		ledger.ErrOutstandingBalance,
		ledger.ErrAccountClosed,
		ledger.ErrDebtNotActive,
		ledger.ErrPaidFlagMismatch,
		ledger.ErrProductInactive,
		repositories.ErrDuplicate,
		repositories.ErrReferenced,
		repositories.ErrConflict,
		services.ErrTOTPNotEnabled,
		services.ErrNoTOTPSecret,
	}
	unavailable = []error{
		services.ErrPaymentsDisabled,
		services.ErrStorageDisabled,
	}
)

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// statusFor maps a domain error to its HTTP status.
func statusFor(err error) int {
	switch {
	case matchesAny(err, badRequest):
		return http.StatusBadRequest
	case matchesAny(err, unauthorized):
		return http.StatusUnauthorized
	case matchesAny(err, forbidden):
		return http.StatusForbidden
	case matchesAny(err, notFound):
		return http.StatusNotFound
	case matchesAny(err, conflict):
		return http.StatusConflict
	case matchesAny(err, unavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"error": ...}. Unknown errors are logged and
// reported as an opaque 500.
func writeError(w http.ResponseWriter, r *http.Request, module, funcName string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		config.LogError(logger, module, funcName, r.Method+" "+r.URL.Path, nil, err)
		utils.Error(w, status, "internal server error")
		return
	}
	utils.Error(w, status, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// pathID reads a uuid route variable.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// queryID reads an optional uuid query parameter.
func queryID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s", services.ErrValidation, name)
	}
	return &id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid %s", services.ErrValidation, name)
	}
	return n, nil
}

func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "authorization required")
		return uuid.Nil, false
	}
	return id, true
}

func idempotencyKey(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("Idempotency-Key"))
}

// writeFile sends a generated download.
func writeFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func pathVar(r *http.Request, name string) (string, bool) {
	v, ok := mux.Vars(r)[name]
	return v, ok
}
