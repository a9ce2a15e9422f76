package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/presaleshub/crm-api/internal/domain"
	"github.com/presaleshub/crm-api/internal/repository"
	"github.com/presaleshub/crm-api/internal/service"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

func NewUserHandler(userService *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// Register godoc
// @Summary Register user
// @Description Create an account with a generated temporary password. The password is returned exactly once.
// @Tags Users
// @Accept json
// @Produce json
// @Param request body domain.RegisterUserRequest true "User data"
// @Success 201 {object} domain.RegisterUserResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Email already registered"
// @Security BearerAuth
// @Router /users [post]
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterUserRequest
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

	result, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateEmail) {
			respondJSON(w, http.StatusConflict, domain.ErrorResponse{
				Error:   "Conflict",
				Message: "Email already registered",
			})
			return
		}
		if errors.Is(err, service.ErrInvalidInput) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to register user", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to register user",
		})
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// List godoc
// @Summary List users
// @Description Get paginated list of users with their role and region assignments
// @Tags Users
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 100)" default(10)
// @Param search query string false "Search by name or email"
// @Param status query string false "Filter by status" Enums(active, inactive)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.UserDTO}
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	filters := &repository.UserFilters{
		Search: r.URL.Query().Get("search"),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := domain.UserStatus(status)
		filters.Status = &s
	}

	result, err := h.userService.List(r.Context(), page, pageSize, filters)
	if err != nil {
		h.logger.Error("failed to list users", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list users",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get user by ID
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} domain.UserDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid user ID format",
		})
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "User not found",
			})
			return
		}
		h.logger.Error("failed to get user", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get user",
		})
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// Update godoc
// @Summary Update user
// @Description Update an account. Supplied role and region lists replace the current assignments.
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body domain.UpdateUserRequest true "User data"
// @Success 200 {object} domain.UserDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Email already registered"
// @Security BearerAuth
// @Router /users/{id} [put]
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid user ID format",
		})
		return
	}

	var req domain.UpdateUserRequest
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

	user, err := h.userService.Update(r.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "User not found",
			})
		case errors.Is(err, service.ErrDuplicateEmail):
			respondJSON(w, http.StatusConflict, domain.ErrorResponse{
				Error:   "Conflict",
				Message: "Email already registered",
			})
		case errors.Is(err, service.ErrInvalidInput):
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
		default:
			h.logger.Error("failed to update user", zap.Error(err))
			respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
				Error:   "Internal Server Error",
				Message: "Failed to update user",
			})
		}
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// Delete godoc
// @Summary Delete user
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid user ID format",
		})
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "User not found",
			})
			return
		}
		h.logger.Error("failed to delete user", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to delete user",
		})
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
