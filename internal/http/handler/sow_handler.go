package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/presaleshub/crm-api/internal/auth"
	"github.com/presaleshub/crm-api/internal/domain"
	"github.com/presaleshub/crm-api/internal/service"
	"go.uber.org/zap"
)

type SOWHandler struct {
	sowService         *service.SOWService
	maxUploadBytes     int64
	maxFilesPerRequest int
	logger             *zap.Logger
}

func NewSOWHandler(sowService *service.SOWService, maxUploadSizeMB int64, maxFilesPerRequest int, logger *zap.Logger) *SOWHandler {
	return &SOWHandler{
		sowService:         sowService,
		maxUploadBytes:     maxUploadSizeMB << 20,
		maxFilesPerRequest: maxFilesPerRequest,
		logger:             logger,
	}
}

// List godoc
// @Summary List SOWs
// @Description Get paginated list of SOWs. The sort key must be one of sow_id, sow_title, created_at, contract_value, opportunity_id, rfb_id; unknown keys are rejected.
// @Tags SOWs
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 100)" default(10)
// @Param search query string false "Search by title or scope"
// @Param opportunity_id query int false "Filter by opportunity"
// @Param rfb_id query int false "Filter by RFB"
// @Param user_id query int false "Filter by creator"
// @Param sortBy query string false "Sort key" Enums(sow_id, sow_title, created_at, contract_value, opportunity_id, rfb_id)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.SOW}
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /sows [get]
func (h *SOWHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	filters := &domain.SOWListFilters{
		Search:    r.URL.Query().Get("search"),
		SortBy:    r.URL.Query().Get("sortBy"),
		SortOrder: r.URL.Query().Get("sortOrder"),
	}
	if raw := r.URL.Query().Get("opportunity_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			opportunityID := uint(id)
			filters.OpportunityID = &opportunityID
		}
	}
	if raw := r.URL.Query().Get("rfb_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			rfbID := uint(id)
			filters.RFBID = &rfbID
		}
	}
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			userID := uint(id)
			filters.UserID = &userID
		}
	}

	result, err := h.sowService.List(r.Context(), page, pageSize, filters)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSortKey) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to list sows", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list SOWs",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get SOW by ID
// @Description Get a SOW with its documents
// @Tags SOWs
// @Produce json
// @Param id path int true "SOW ID"
// @Success 200 {object} domain.SOW
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /sows/{id} [get]
func (h *SOWHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid SOW ID format",
		})
		return
	}

	sow, err := h.sowService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "SOW not found",
			})
			return
		}
		h.logger.Error("failed to get sow", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get SOW",
		})
		return
	}

	respondJSON(w, http.StatusOK, sow)
}

// Create godoc
// @Summary Create SOW
// @Description Create a SOW with optional document uploads. Send metadata as a JSON string in the 'data' field and files in the 'documents' field. The SOW must reference an existing opportunity.
// @Tags SOWs
// @Accept multipart/form-data
// @Produce json
// @Param data formData string true "SOW metadata as JSON"
// @Param documents formData file false "SOW documents"
// @Success 201 {object} domain.SOW
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /sows [post]
func (h *SOWHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid multipart form",
		})
		return
	}

	data := r.FormValue("data")
	if data == "" {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "SOW metadata is required in the 'data' field",
		})
		return
	}

	var req domain.CreateSOWRequest
	if err := parseJSON(data, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid JSON in 'data' field",
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

	files, closeFiles, ok := h.collectFiles(w, r)
	if !ok {
		return
	}
	defer closeFiles()

	result, err := h.sowService.Create(r.Context(), &req, files)
	if err != nil {
		if errors.Is(err, service.ErrInvalidOpportunity) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Referenced opportunity does not exist",
			})
			return
		}
		h.logger.Error("failed to create sow", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to create SOW",
		})
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// Delete godoc
// @Summary Delete SOW
// @Description Delete a SOW together with its documents and stored files
// @Tags SOWs
// @Produce json
// @Param id path int true "SOW ID"
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /sows/{id} [delete]
func (h *SOWHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid SOW ID format",
		})
		return
	}

	if err := h.sowService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "SOW not found",
			})
			return
		}
		h.logger.Error("failed to delete sow", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to delete SOW",
		})
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// DownloadDocument godoc
// @Summary Download SOW document
// @Description Stream one stored SOW document
// @Tags SOWs
// @Produce application/octet-stream
// @Param id path int true "SOW ID"
// @Param documentId path int true "Document ID"
// @Success 200 {file} binary
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /sows/{id}/documents/{documentId} [get]
func (h *SOWHandler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid SOW ID format",
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

	document, reader, err := h.sowService.DownloadDocument(r.Context(), id, documentID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Document not found",
			})
			return
		}
		h.logger.Error("failed to download sow document", zap.Error(err))
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

// DeleteDocument godoc
// @Summary Delete SOW document
// @Description Delete one SOW document row and its stored file
// @Tags SOWs
// @Produce json
// @Param id path int true "SOW ID"
// @Param documentId path int true "Document ID"
// @Success 204 "No Content"
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /sows/{id}/documents/{documentId} [delete]
func (h *SOWHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid SOW ID format",
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

	if err := h.sowService.DeleteDocument(r.Context(), id, documentID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Document not found",
			})
			return
		}
		h.logger.Error("failed to delete sow document", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to delete document",
		})
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// collectFiles opens every file uploaded in the 'documents' field
func (h *SOWHandler) collectFiles(w http.ResponseWriter, r *http.Request) ([]service.FileUpload, func(), bool) {
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

	headers := r.MultipartForm.File["documents"]
	if len(headers) > h.maxFilesPerRequest {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Too many files in one request",
		})
		return nil, nil, false
	}

	for _, header := range headers {
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
			Category:    domain.CategoryOther,
			Data:        file,
		})
	}

	return files, closeFiles, true
}
