package service

import (
	"context"
	"fmt"

	"github.com/presaleshub/crm-api/internal/repository"
	"github.com/presaleshub/crm-api/internal/warehouse"
	"go.uber.org/zap"
)

// WarehouseSyncService exports opportunity snapshots to the reporting
// warehouse. It backs the scheduled sync job.
type WarehouseSyncService struct {
	opportunityRepo *repository.OpportunityRepository
	client          *warehouse.Client
	logger          *zap.Logger
}

func NewWarehouseSyncService(opportunityRepo *repository.OpportunityRepository, client *warehouse.Client, logger *zap.Logger) *WarehouseSyncService {
	return &WarehouseSyncService{
		opportunityRepo: opportunityRepo,
		client:          client,
		logger:          logger,
	}
}

// ExportOpportunitySnapshots loads the full opportunity set and merges it
// into the warehouse snapshot table
func (s *WarehouseSyncService) ExportOpportunitySnapshots(ctx context.Context) (int, error) {
	if !s.client.IsEnabled() {
		return 0, fmt.Errorf("warehouse client not available")
	}

	opportunities, err := s.opportunityRepo.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load opportunities: %w", err)
	}
	if len(opportunities) == 0 {
		s.logger.Info("no opportunities to export")
		return 0, nil
	}

	return s.client.UpsertOpportunitySnapshots(ctx, opportunities)
}
