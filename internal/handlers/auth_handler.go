package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"sari-backend/internal/middleware"
	"sari-backend/internal/models"
	"sari-backend/internal/services"
	"sari-backend/pkg/utils"
)

type AuthHandler struct {
	Service *services.UserService
	log     *logrus.Entry
}

func NewAuthHandler(s *services.UserService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Service: s, log: logger.WithField("component", "auth")}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	authResp, err := h.Service.Login(r.Context(), &req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	utils.JSON(w, http.StatusOK, authResp)
}

// Me returns the signed-in user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	user, err := h.Service.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	utils.JSON(w, http.StatusOK, user)
}
