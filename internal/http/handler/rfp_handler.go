package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/presaleshub/crm-api/internal/auth"
	"github.com/presaleshub/crm-api/internal/domain"
	"github.com/presaleshub/crm-api/internal/repository"
	"github.com/presaleshub/crm-api/internal/service"
	"go.uber.org/zap"
)

// multipartMemoryLimit bounds the in-memory portion of multipart parsing;
// larger files spill to temp files.
const multipartMemoryLimit = 32 << 20

type RFPHandler struct {
	rfpService         *service.RFPService
	maxUploadBytes     int64
	maxFilesPerRequest int
	logger             *zap.Logger
}

func NewRFPHandler(rfpService *service.RFPService, maxUploadSizeMB int64, maxFilesPerRequest int, logger *zap.Logger) *RFPHandler {
	return &RFPHandler{
		rfpService:         rfpService,
		maxUploadBytes:     maxUploadSizeMB << 20,
		maxFilesPerRequest: maxFilesPerRequest,
		logger:             logger,
	}
}

// List godoc
// @Summary List RFPs
// @Description Get paginated list of RFPs with optional filters
// @Tags RFPs
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 100)" default(10)
// @Param search query string false "Search by title or description"
// @Param status query string false "Filter by status" Enums(Draft, In Progress, Submitted, Cancelled)
// @Param rfp_type query string false "Filter by RFP type"
// @Param opportunity_id query int false "Filter by opportunity"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.RFPDTO}
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /rfps [get]
func (h *RFPHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	filters := &repository.RFPFilters{
		Search:  r.URL.Query().Get("search"),
		RFPType: r.URL.Query().Get("rfp_type"),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := domain.RFPStatus(status)
		filters.Status = &s
	}
	if raw := r.URL.Query().Get("opportunity_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			opportunityID := uint(id)
			filters.OpportunityID = &opportunityID
		}
	}

	result, err := h.rfpService.List(r.Context(), page, pageSize, filters)
	if err != nil {
		h.logger.Error("failed to list rfps", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list RFPs",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get RFP by ID
// @Description Get an RFP with its documents grouped by category
// @Tags RFPs
// @Produce json
// @Param id path int true "RFP ID"
// @Success 200 {object} domain.RFPDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /rfps/{id} [get]
func (h *RFPHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid RFP ID format",
		})
		return
	}

	rfp, err := h.rfpService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "RFP not found",
			})
			return
		}
		h.logger.Error("failed to get rfp", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get RFP",
		})
		return
	}

	respondJSON(w, http.StatusOK, rfp)
}

// Create godoc
// @Summary Create RFP
// @Description Create an RFP with optional document uploads. Send metadata as a JSON string in the 'data' field and files in fields named after their category (commercial, proposal, presentation, qa_document, other). Creating with status Submitted against an opportunity advances that opportunity to the SOW stage.
// @Tags RFPs
// @Accept multipart/form-data
// @Produce json
// @Param data formData string true "RFP metadata as JSON"
// @Param commercial formData file false "Commercial documents"
// @Param proposal formData file false "Proposal documents"
// @Param presentation formData file false "Presentation documents"
// @Param qa_document formData file false "Q&A documents"
// @Param other formData file false "Other documents"
// @Success 201 {object} domain.RFPDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /rfps [post]
func (h *RFPHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, files, closeFiles, ok := h.parseMultipart(w, r, true)
	if !ok {
		return
	}
	defer closeFiles()

	if req.UserID == 0 {
		if userCtx, userOK := auth.FromContext(r.Context()); userOK {
			req.UserID = userCtx.UserID
		}
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.rfpService.Create(r.Context(), req, files)
	if err != nil {
		h.respondServiceError(w, err, "Failed to create RFP")
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// Update godoc
// @Summary Update RFP
// @Description Update an RFP with coalesce semantics; newly uploaded documents are appended. A transition to Submitted advances the linked opportunity to the SOW stage.
// @Tags RFPs
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "RFP ID"
// @Param data formData string true "RFP metadata as JSON"
// @Param commercial formData file false "Commercial documents"
// @Param proposal formData file false "Proposal documents"
// @Param presentation formData file false "Presentation documents"
// @Param qa_document formData file false "Q&A documents"
// @Param other formData file false "Other documents"
// @Success 200 {object} domain.RFPDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /rfps/{id} [put]
func (h *RFPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid RFP ID format",
		})
		return
	}

	if parseErr := r.ParseMultipartForm(multipartMemoryLimit); parseErr != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid multipart form",
		})
		return
	}

	var req domain.UpdateRFPRequest
	if data := r.FormValue("data"); data != "" {
		if parseErr := parseJSON(data, &req); parseErr != nil {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid JSON in 'data' field",
			})
			return
		}
	}

	if validateErr := validate.Struct(&req); validateErr != nil {
		respondValidationError(w, validateErr)
		return
	}

	files, closeFiles, ok := h.collectFiles(w, r)
	if !ok {
		return
	}
	defer closeFiles()

	result, err := h.rfpService.Update(r.Context(), id, &req, files)
	if err != nil {
		h.respondServiceError(w, err, "Failed to update RFP")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Delete godoc
// @Summary Delete RFP
// @Description Delete an RFP together with its documents and stored files
// @Tags RFPs
// @Produce json
// @Param id path int true "RFP ID"
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /rfps/{id} [delete]
func (h *RFPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid RFP ID format",
		})
		return
	}

	if err := h.rfpService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "RFP not found",
			})
			return
		}
		h.logger.Error("failed to delete rfp", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to delete RFP",
		})
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// DownloadDocument godoc
// @Summary Download RFP document
// @Description Stream one stored RFP document
// @Tags RFPs
// @Produce application/octet-stream
// @Param id path int true "RFP ID"
// @Param documentId path int true "Document ID"
// @Success 200 {file} binary
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /rfps/{id}/documents/{documentId} [get]
func (h *RFPHandler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid RFP ID format",
		})
		return
	}
	documentID, err := parseUintParam(r, "documentId")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid document ID format",
		})
		return
	}

	document, reader, err := h.rfpService.DownloadDocument(r.Context(), id, documentID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Document not found",
			})
			return
		}
		h.logger.Error("failed to download rfp document", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to download document",
		})
		return
	}
	defer reader.Close()

	contentType := document.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+document.OriginalName+`"`)
	_, _ = io.Copy(w, reader)
}

// parseMultipart parses the multipart form, decodes the 'data' JSON part and
// collects uploaded files by category field
func (h *RFPHandler) parseMultipart(w http.ResponseWriter, r *http.Request, requireData bool) (*domain.CreateRFPRequest, []service.FileUpload, func(), bool) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid multipart form",
		})
		return nil, nil, nil, false
	}

	var req domain.CreateRFPRequest
	data := r.FormValue("data")
	if data == "" && requireData {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "RFP metadata is required in the 'data' field",
		})
		return nil, nil, nil, false
	}
	if data != "" {
		if err := parseJSON(data, &req); err != nil {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid JSON in 'data' field",
			})
			return nil, nil, nil, false
		}
	}

	files, closeFiles, ok := h.collectFiles(w, r)
	if !ok {
		return nil, nil, nil, false
	}
	return &req, files, closeFiles, true
}

// collectFiles opens every uploaded file, keyed by its category form field.
// Oversized files and over-long file lists are rejected before any storage
// write happens.
func (h *RFPHandler) collectFiles(w http.ResponseWriter, r *http.Request) ([]service.FileUpload, func(), bool) {
	var files []service.FileUpload
	var opened []multipart.File
	closeFiles := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	if r.MultipartForm == nil {
		return nil, closeFiles, true
	}

	total := 0
	for _, category := range domain.DocumentCategories {
		headers := r.MultipartForm.File[string(category)]
		for _, header := range headers {
			total++
			if total > h.maxFilesPerRequest {
				closeFiles()
				respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
					Error:   "Bad Request",
					Message: "Too many files in one request",
				})
				return nil, nil, false
			}
			if header.Size > h.maxUploadBytes {
				closeFiles()
				respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
					Error:   "Bad Request",
					Message: "File " + header.Filename + " exceeds the upload size limit",
				})
				return nil, nil, false
			}

			file, err := header.Open()
			if err != nil {
				closeFiles()
				respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
					Error:   "Bad Request",
					Message: "Failed to read uploaded file " + header.Filename,
				})
				return nil, nil, false
			}
			opened = append(opened, file)
			files = append(files, service.FileUpload{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Category:    category,
				Data:        file,
			})
		}
	}

	return files, closeFiles, true
}

func (h *RFPHandler) respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
			Error:   "Not Found",
			Message: "RFP not found",
		})
	case errors.Is(err, service.ErrInvalidOpportunity):
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Referenced opportunity does not exist",
		})
	case errors.Is(err, service.ErrInvalidInput):
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: err.Error(),
		})
	default:
		h.logger.Error("rfp operation failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: fallback,
		})
	}
}
