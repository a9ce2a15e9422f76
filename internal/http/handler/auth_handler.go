package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/presaleshub/crm-api/internal/auth"
	"github.com/presaleshub/crm-api/internal/domain"
	"github.com/presaleshub/crm-api/internal/service"
	"go.uber.org/zap"
)

type AuthHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

func NewAuthHandler(userService *service.UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		logger:      logger,
	}
}

// Login godoc
// @Summary Log in
// @Description Authenticate with email and password and receive a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "Credentials"
// @Success 200 {object} domain.LoginResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse "Account inactive"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request body",
		})
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondJSON(w, http.StatusUnauthorized, domain.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Invalid email or password",
			})
			return
		}
		if errors.Is(err, service.ErrInactiveAccount) {
			respondJSON(w, http.StatusForbidden, domain.ErrorResponse{
				Error:   "Forbidden",
				Message: "Account is inactive",
			})
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to log in",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Me godoc
// @Summary Current user profile
// @Description Get the authenticated user's profile
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.UserDTO
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, domain.ErrorResponse{
			Error:   "Unauthorized",
			Message: "Authentication required",
		})
		return
	}

	user, err := h.userService.GetByID(r.Context(), userCtx.UserID)
	if err != nil {
		h.logger.Error("failed to load current user", zap.Error(err), zap.Uint("user_id", userCtx.UserID))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to load profile",
		})
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// Permissions godoc
// @Summary Current user permissions
// @Description Get the authenticated user's resolved module and permission set
// @Tags Auth
// @Produce json
// @Success 200 {object} auth.PermissionSet
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /auth/permissions [get]
func (h *AuthHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, domain.ErrorResponse{
			Error:   "Unauthorized",
			Message: "Authentication required",
		})
		return
	}

	respondJSON(w, http.StatusOK, userCtx.Permissions)
}
