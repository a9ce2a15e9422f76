package handler

import (
	"net/http"

	"github.com/presaleshub/crm-api/internal/domain"
	"github.com/presaleshub/crm-api/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// Stats godoc
// @Summary Dashboard statistics
// @Description Get headline counts, the approval-stage conversion funnel, lead-source distribution and pipeline value by currency
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.DashboardStats
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to build dashboard stats", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to build dashboard statistics",
		})
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// SalesPerformance godoc
// @Summary Sales performance
// @Description Get per-user opportunity counts, pipeline value, wins and win rate
// @Tags Dashboard
// @Produce json
// @Success 200 {array} domain.SalesPerformanceRow
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /dashboard/sales-performance [get]
func (h *DashboardHandler) SalesPerformance(w http.ResponseWriter, r *http.Request) {
	rows, err := h.dashboardService.SalesPerformance(r.Context())
	if err != nil {
		h.logger.Error("failed to build sales performance", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to build sales performance",
		})
		return
	}

	respondJSON(w, http.StatusOK, rows)
}
