package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/presaleshub/crm-api/internal/auth"
	"github.com/presaleshub/crm-api/internal/domain"
	"github.com/presaleshub/crm-api/internal/repository"
	"github.com/presaleshub/crm-api/internal/service"
	"go.uber.org/zap"
)

type ClientHandler struct {
	clientService *service.ClientService
	importService *service.ImportService
	logger        *zap.Logger
}

func NewClientHandler(clientService *service.ClientService, importService *service.ImportService, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{
		clientService: clientService,
		importService: importService,
		logger:        logger,
	}
}

// List godoc
// @Summary List clients
// @Description Get paginated list of clients with optional filters
// @Tags Clients
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 100)" default(10)
// @Param search query string false "Search by name or email"
// @Param status query string false "Filter by status" Enums(Active, Inactive, Prospect)
// @Param industry query string false "Filter by industry"
// @Param client_type query string false "Filter by client type"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.Client}
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /clients [get]
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	filters := &repository.ClientFilters{
		Search:     r.URL.Query().Get("search"),
		Industry:   r.URL.Query().Get("industry"),
		ClientType: r.URL.Query().Get("client_type"),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := domain.ClientStatus(status)
		filters.Status = &s
	}

	result, err := h.clientService.List(r.Context(), page, pageSize, filters)
	if err != nil {
		h.logger.Error("failed to list clients", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list clients",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get client by ID
// @Description Get a client with its contacts and addresses
// @Tags Clients
// @Produce json
// @Param id path int true "Client ID"
// @Success 200 {object} domain.Client
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /clients/{id} [get]
func (h *ClientHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid client ID format",
		})
		return
	}

	client, err := h.clientService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Client not found",
			})
			return
		}
		h.logger.Error("failed to get client", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get client",
		})
		return
	}

	respondJSON(w, http.StatusOK, client)
}

// Create godoc
// @Summary Create client
// @Description Create a client with its contacts and addresses in one atomic call
// @Tags Clients
// @Accept json
// @Produce json
// @Param request body domain.CreateClientRequest true "Client data"
// @Success 201 {object} domain.CreateClientResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /clients [post]
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request body",
		})
		return
	}

	if req.UserID == 0 {
		if userCtx, ok := auth.FromContext(r.Context()); ok {
			req.UserID = userCtx.UserID
		}
	}

	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.clientService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create client", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to create client",
		})
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// Update godoc
// @Summary Update client
// @Description Update a client. Omitted scalar fields keep their stored value; contacts and addresses are replaced with the supplied lists.
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path int true "Client ID"
// @Param request body domain.UpdateClientRequest true "Client data"
// @Success 200 {object} domain.Client
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /clients/{id} [put]
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid client ID format",
		})
		return
	}

	var req domain.UpdateClientRequest
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

	client, err := h.clientService.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Client not found",
			})
			return
		}
		h.logger.Error("failed to update client", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to update client",
		})
		return
	}

	respondJSON(w, http.StatusOK, client)
}

// Delete godoc
// @Summary Delete client
// @Description Delete a client together with its contacts and addresses
// @Tags Clients
// @Produce json
// @Param id path int true "Client ID"
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /clients/{id} [delete]
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid client ID format",
		})
		return
	}

	if err := h.clientService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Client not found",
			})
			return
		}
		h.logger.Error("failed to delete client", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to delete client",
		})
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// Import godoc
// @Summary Bulk import clients
// @Description Import clients from an uploaded CSV file. Row failures are reported per row and never abort the run.
// @Tags Clients
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Success 200 {object} domain.ImportResult
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /clients/import [post]
func (h *ClientHandler) Import(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, domain.ErrorResponse{
			Error:   "Unauthorized",
			Message: "Authentication required",
		})
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "A CSV file is required in the 'file' field",
		})
		return
	}
	defer file.Close()

	result, err := h.importService.ImportClients(r.Context(), userCtx.UserID, file)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("client import failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to import clients",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ImportTemplate godoc
// @Summary Client import template
// @Description Download the CSV template for client imports
// @Tags Clients
// @Produce text/csv
// @Success 200 {string} string "CSV template"
// @Security BearerAuth
// @Router /clients/import/template [get]
func (h *ClientHandler) ImportTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="client_import_template.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.importService.ClientTemplate()))
}
