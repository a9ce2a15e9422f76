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

type OpportunityHandler struct {
	opportunityService *service.OpportunityService
	rfpService         *service.RFPService
	importService      *service.ImportService
	logger             *zap.Logger
}

func NewOpportunityHandler(
	opportunityService *service.OpportunityService,
	rfpService *service.RFPService,
	importService *service.ImportService,
	logger *zap.Logger,
) *OpportunityHandler {
	return &OpportunityHandler{
		opportunityService: opportunityService,
		rfpService:         rfpService,
		importService:      importService,
		logger:             logger,
	}
}

// List godoc
// @Summary List opportunities
// @Description Get paginated list of opportunities with optional filters
// @Tags Opportunities
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 100)" default(10)
// @Param search query string false "Search by opportunity or client name"
// @Param triage_status query string false "Filter by triage status"
// @Param pipeline_status query string false "Filter by pipeline status"
// @Param opportunity_type query string false "Filter by opportunity type"
// @Param approval_stage query string false "Filter by approval stage" Enums(LEVEL_1_RFB, LEVEL_2_SOW, LEVEL_3_CONTRACT)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.OpportunityDTO}
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /opportunities [get]
func (h *OpportunityHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	filters := &repository.OpportunityFilters{
		Search:          r.URL.Query().Get("search"),
		TriageStatus:    r.URL.Query().Get("triage_status"),
		PipelineStatus:  r.URL.Query().Get("pipeline_status"),
		OpportunityType: r.URL.Query().Get("opportunity_type"),
	}
	if stage := r.URL.Query().Get("approval_stage"); stage != "" {
		s := domain.ApprovalStage(stage)
		filters.ApprovalStage = &s
	}

	result, err := h.opportunityService.List(r.Context(), page, pageSize, filters)
	if err != nil {
		h.logger.Error("failed to list opportunities", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list opportunities",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get opportunity by ID
// @Description Get an opportunity with its next-step sequence
// @Tags Opportunities
// @Produce json
// @Param id path int true "Opportunity ID"
// @Success 200 {object} domain.OpportunityDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /opportunities/{id} [get]
func (h *OpportunityHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid opportunity ID format",
		})
		return
	}

	opportunity, err := h.opportunityService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Opportunity not found",
			})
			return
		}
		h.logger.Error("failed to get opportunity", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get opportunity",
		})
		return
	}

	respondJSON(w, http.StatusOK, opportunity)
}

// GetRFPs godoc
// @Summary RFPs for an opportunity
// @Description Get every RFP linked to an opportunity
// @Tags Opportunities
// @Produce json
// @Param id path int true "Opportunity ID"
// @Success 200 {array} domain.RFPDTO
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /opportunities/{id}/rfps [get]
func (h *OpportunityHandler) GetRFPs(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid opportunity ID format",
		})
		return
	}

	rfps, err := h.rfpService.GetByOpportunity(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get rfps for opportunity", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get RFPs",
		})
		return
	}

	respondJSON(w, http.StatusOK, rfps)
}

// Create godoc
// @Summary Create opportunity
// @Description Create an opportunity at the first approval stage
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param request body domain.CreateOpportunityRequest true "Opportunity data"
// @Success 201 {object} domain.OpportunityDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /opportunities [post]
func (h *OpportunityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOpportunityRequest
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

	result, err := h.opportunityService.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to create opportunity", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to create opportunity",
		})
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// Update godoc
// @Summary Update opportunity
// @Description Update an opportunity. Supplied fields override; supplied next steps are appended to the stored sequence.
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param id path int true "Opportunity ID"
// @Param request body domain.UpdateOpportunityRequest true "Opportunity data"
// @Success 200 {object} domain.OpportunityDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /opportunities/{id} [put]
func (h *OpportunityHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid opportunity ID format",
		})
		return
	}

	var req domain.UpdateOpportunityRequest
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

	result, err := h.opportunityService.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Opportunity not found",
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
		h.logger.Error("failed to update opportunity", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to update opportunity",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Delete godoc
// @Summary Delete opportunity
// @Tags Opportunities
// @Produce json
// @Param id path int true "Opportunity ID"
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /opportunities/{id} [delete]
func (h *OpportunityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid opportunity ID format",
		})
		return
	}

	if err := h.opportunityService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Opportunity not found",
			})
			return
		}
		h.logger.Error("failed to delete opportunity", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to delete opportunity",
		})
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// Import godoc
// @Summary Bulk import opportunities
// @Description Import opportunities from an uploaded CSV file. Row failures are reported per row and never abort the run.
// @Tags Opportunities
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Success 200 {object} domain.ImportResult
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /opportunities/import [post]
func (h *OpportunityHandler) Import(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.importService.ImportOpportunities(r.Context(), userCtx.UserID, file)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("opportunity import failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to import opportunities",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ImportTemplate godoc
// @Summary Opportunity import template
// @Description Download the CSV template for opportunity imports
// @Tags Opportunities
// @Produce text/csv
// @Success 200 {string} string "CSV template"
// @Security BearerAuth
// @Router /opportunities/import/template [get]
func (h *OpportunityHandler) ImportTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="opportunity_import_template.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.importService.OpportunityTemplate()))
}
