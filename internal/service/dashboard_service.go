package service

import (
	"context"
	"fmt"

	"github.com/presaleshub/crm-api/internal/domain"
	"github.com/presaleshub/crm-api/internal/repository"
	"go.uber.org/zap"
)

type DashboardService struct {
	clientRepo      *repository.ClientRepository
	opportunityRepo *repository.OpportunityRepository
	rfpRepo         *repository.RFPRepository
	sowRepo         *repository.SOWRepository
	logger          *zap.Logger
}

func NewDashboardService(
	clientRepo *repository.ClientRepository,
	opportunityRepo *repository.OpportunityRepository,
	rfpRepo *repository.RFPRepository,
	sowRepo *repository.SOWRepository,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		clientRepo:      clientRepo,
		opportunityRepo: opportunityRepo,
		rfpRepo:         rfpRepo,
		sowRepo:         sowRepo,
		logger:          logger,
	}
}

// Stats assembles the headline counts, conversion funnel and source
// distribution for the dashboard
func (s *DashboardService) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	stats := &domain.DashboardStats{}

	var err error
	if stats.TotalClients, err = s.clientRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count clients: %w", err)
	}
	if stats.TotalOpportunities, err = s.opportunityRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count opportunities: %w", err)
	}
	if stats.TotalRFPs, err = s.rfpRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count rfps: %w", err)
	}
	if stats.TotalSOWs, err = s.sowRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count sows: %w", err)
	}
	if stats.ConversionFunnel, err = s.opportunityRepo.CountByStage(ctx); err != nil {
		return nil, fmt.Errorf("failed to build conversion funnel: %w", err)
	}
	if stats.SourceDistribution, err = s.opportunityRepo.CountBySource(ctx); err != nil {
		return nil, fmt.Errorf("failed to build source distribution: %w", err)
	}
	if stats.PipelineValue, err = s.opportunityRepo.PipelineValueByCurrency(ctx); err != nil {
		return nil, fmt.Errorf("failed to sum pipeline value: %w", err)
	}

	return stats, nil
}

// SalesPerformance aggregates opportunity outcomes per owning user
func (s *DashboardService) SalesPerformance(ctx context.Context) ([]domain.SalesPerformanceRow, error) {
	rows, err := s.opportunityRepo.SalesPerformance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sales performance: %w", err)
	}
	return rows, nil
}
