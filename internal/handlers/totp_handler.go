package handlers

import (
	"net/http"

	"pos-backend/internal/models"
	"pos-backend/internal/services"
	"pos-backend/pkg/utils"
)

type TOTPHandler struct {
	TOTPService *services.TOTPService
}

func NewTOTPHandler(totpService *services.TOTPService) *TOTPHandler {
	return &TOTPHandler{TOTPService: totpService}
}

// SetupTOTP starts enrolment and returns the secret and QR code.
// The secret is not active until EnableTOTP confirms a code.
func (h *TOTPHandler) SetupTOTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	setup, err := h.TOTPService.GenerateSetup(r.Context(), userID)
	if err != nil {
		writeError(w, r, "TOTPHandler", "SetupTOTP", err)
		return
	}
	utils.JSON(w, http.StatusOK, setup)
}

func (h *TOTPHandler) EnableTOTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.TOTPCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.TOTPService.Enable(r.Context(), userID, &req); err != nil {
		writeError(w, r, "TOTPHandler", "EnableTOTP", err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]bool{"totpEnabled": true})
}

// DisableTOTP requires both the password and a current code.
func (h *TOTPHandler) DisableTOTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.TOTPDisableRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.TOTPService.Disable(r.Context(), userID, &req); err != nil {
		writeError(w, r, "TOTPHandler", "DisableTOTP", err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]bool{"totpEnabled": false})
}
