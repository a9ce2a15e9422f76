package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/presaleshub/crm-api/internal/domain"
	"github.com/presaleshub/crm-api/internal/service"
	"go.uber.org/zap"
)

// ReferenceHandler serves the lookup tables used by assignment forms
type ReferenceHandler struct {
	referenceService *service.ReferenceService
	logger           *zap.Logger
}

func NewReferenceHandler(referenceService *service.ReferenceService, logger *zap.Logger) *ReferenceHandler {
	return &ReferenceHandler{
		referenceService: referenceService,
		logger:           logger,
	}
}

// ListRoles godoc
// @Summary List roles
// @Tags Reference
// @Produce json
// @Success 200 {array} domain.Role
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /roles [get]
func (h *ReferenceHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.referenceService.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("failed to list roles", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list roles",
		})
		return
	}
	respondJSON(w, http.StatusOK, roles)
}

// ListRegions godoc
// @Summary List regions
// @Tags Reference
// @Produce json
// @Success 200 {array} domain.Region
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /regions [get]
func (h *ReferenceHandler) ListRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.referenceService.ListRegions(r.Context())
	if err != nil {
		h.logger.Error("failed to list regions", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list regions",
		})
		return
	}
	respondJSON(w, http.StatusOK, regions)
}

// ListCountries godoc
// @Summary List countries
// @Tags Reference
// @Produce json
// @Success 200 {array} domain.Country
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /countries [get]
func (h *ReferenceHandler) ListCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.referenceService.ListCountries(r.Context())
	if err != nil {
		h.logger.Error("failed to list countries", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list countries",
		})
		return
	}
	respondJSON(w, http.StatusOK, countries)
}

// CreateRole godoc
// @Summary Create role
// @Tags Reference
// @Accept json
// @Produce json
// @Param request body domain.CreateRoleRequest true "Role data"
// @Success 201 {object} domain.Role
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Name already taken"
// @Security BearerAuth
// @Router /roles [post]
func (h *ReferenceHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateRoleRequest
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

	role, err := h.referenceService.CreateRole(r.Context(), &req)
	if err != nil {
		h.respondCreateError(w, err, "role")
		return
	}
	respondJSON(w, http.StatusCreated, role)
}

// CreateRegion godoc
// @Summary Create region
// @Tags Reference
// @Accept json
// @Produce json
// @Param request body domain.CreateRegionRequest true "Region data"
// @Success 201 {object} domain.Region
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Name already taken"
// @Security BearerAuth
// @Router /regions [post]
func (h *ReferenceHandler) CreateRegion(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateRegionRequest
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

	region, err := h.referenceService.CreateRegion(r.Context(), &req)
	if err != nil {
		h.respondCreateError(w, err, "region")
		return
	}
	respondJSON(w, http.StatusCreated, region)
}

// CreateCountry godoc
// @Summary Create country
// @Tags Reference
// @Accept json
// @Produce json
// @Param request body domain.CreateCountryRequest true "Country data"
// @Success 201 {object} domain.Country
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Name already taken"
// @Security BearerAuth
// @Router /countries [post]
func (h *ReferenceHandler) CreateCountry(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCountryRequest
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

	country, err := h.referenceService.CreateCountry(r.Context(), &req)
	if err != nil {
		h.respondCreateError(w, err, "country")
		return
	}
	respondJSON(w, http.StatusCreated, country)
}

func (h *ReferenceHandler) respondCreateError(w http.ResponseWriter, err error, kind string) {
	if errors.Is(err, service.ErrConflict) {
		respondJSON(w, http.StatusConflict, domain.ErrorResponse{
			Error:   "Conflict",
			Message: "Name already taken",
		})
		return
	}
	h.logger.Error("failed to create "+kind, zap.Error(err))
	respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
		Error:   "Internal Server Error",
		Message: "Failed to create " + kind,
	})
}
