package handlers

import (
	"net/http"

	"pos-backend/internal/models"
	"pos-backend/internal/services"
	"pos-backend/pkg/utils"
)

type AuthHandler struct {
	Service *services.UserService
}

func NewAuthHandler(s *services.UserService) *AuthHandler {
	return &AuthHandler{Service: s}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	authResp, err := h.Service.Login(r.Context(), &req)
	if err != nil {
		writeError(w, r, "AuthHandler", "Login", err)
		return
	}
	utils.JSON(w, http.StatusOK, authResp)
}
