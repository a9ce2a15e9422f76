package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/presaleshub/crm-api/internal/domain"
	"github.com/presaleshub/crm-api/internal/mapper"
	"github.com/presaleshub/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OpportunityService struct {
	opportunityRepo *repository.OpportunityRepository
	logger          *zap.Logger
}

func NewOpportunityService(opportunityRepo *repository.OpportunityRepository, logger *zap.Logger) *OpportunityService {
	return &OpportunityService{
		opportunityRepo: opportunityRepo,
		logger:          logger,
	}
}

// Create inserts an opportunity at the first approval stage. Next steps are
// validated and timestamped before the sequence is serialized.
func (s *OpportunityService) Create(ctx context.Context, req *domain.CreateOpportunityRequest) (*domain.OpportunityDTO, error) {
	steps, err := stampNextSteps(nil, req.NextSteps)
	if err != nil {
		return nil, err
	}
	serialized, err := serializeNextSteps(steps)
	if err != nil {
		return nil, err
	}

	opportunity := &domain.Opportunity{
		OpportunityName: req.OpportunityName,
		ClientName:      req.ClientName,
		CloseDate:       req.CloseDate,
		Amount:          req.Amount,
		Currency:        req.Currency,
		OpportunityType: req.OpportunityType,
		LeadSource:      req.LeadSource,
		TriageStatus:    req.TriageStatus,
		PipelineStatus:  req.PipelineStatus,
		Probability:     req.Probability,
		ApprovalStage:   domain.StageLevel1RFB,
		NextSteps:       serialized,
		UserID:          req.UserID,
		RoleID:          req.RoleID,
	}

	if err := s.opportunityRepo.Create(ctx, opportunity); err != nil {
		return nil, fmt.Errorf("failed to create opportunity: %w", translateDBError(err))
	}

	s.logger.Info("opportunity created",
		zap.Uint("opportunity_id", opportunity.ID),
		zap.String("name", opportunity.OpportunityName),
	)

	dto := mapper.ToOpportunityDTO(opportunity)
	return &dto, nil
}

func (s *OpportunityService) GetByID(ctx context.Context, id uint) (*domain.OpportunityDTO, error) {
	opportunity, err := s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get opportunity: %w", err)
	}
	dto := mapper.ToOpportunityDTO(opportunity)
	return &dto, nil
}

// Update applies coalesce semantics to scalar fields. Supplied next steps are
// appended to the stored sequence; existing steps are never replaced or
// removed here.
func (s *OpportunityService) Update(ctx context.Context, id uint, req *domain.UpdateOpportunityRequest) (*domain.OpportunityDTO, error) {
	opportunity, err := s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get opportunity: %w", err)
	}

	if req.OpportunityName != nil {
		opportunity.OpportunityName = *req.OpportunityName
	}
	if req.ClientName != nil {
		opportunity.ClientName = *req.ClientName
	}
	if req.CloseDate != nil {
		opportunity.CloseDate = req.CloseDate
	}
	if req.Amount != nil {
		opportunity.Amount = *req.Amount
	}
	if req.Currency != nil {
		opportunity.Currency = *req.Currency
	}
	if req.OpportunityType != nil {
		opportunity.OpportunityType = *req.OpportunityType
	}
	if req.LeadSource != nil {
		opportunity.LeadSource = *req.LeadSource
	}
	if req.TriageStatus != nil {
		opportunity.TriageStatus = *req.TriageStatus
	}
	if req.PipelineStatus != nil {
		opportunity.PipelineStatus = *req.PipelineStatus
	}
	if req.Probability != nil {
		opportunity.Probability = *req.Probability
	}

	if len(req.NextSteps) > 0 {
		existing := parseNextSteps(opportunity.NextSteps)
		merged, err := stampNextSteps(existing, req.NextSteps)
		if err != nil {
			return nil, err
		}
		serialized, err := serializeNextSteps(merged)
		if err != nil {
			return nil, err
		}
		opportunity.NextSteps = serialized
	}

	if err := s.opportunityRepo.Update(ctx, opportunity); err != nil {
		return nil, fmt.Errorf("failed to update opportunity: %w", translateDBError(err))
	}

	dto := mapper.ToOpportunityDTO(opportunity)
	return &dto, nil
}

func (s *OpportunityService) Delete(ctx context.Context, id uint) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.opportunityRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete opportunity: %w", err)
	}
	s.logger.Info("opportunity deleted", zap.Uint("opportunity_id", id))
	return nil
}

func (s *OpportunityService) List(ctx context.Context, page, pageSize int, filters *repository.OpportunityFilters) (*domain.PaginatedResponse, error) {
	page, pageSize = clampPage(page, pageSize)

	opportunities, total, err := s.opportunityRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}

	dtos := make([]domain.OpportunityDTO, len(opportunities))
	for i := range opportunities {
		dtos[i] = mapper.ToOpportunityDTO(&opportunities[i])
	}

	return &domain.PaginatedResponse{
		Data:       dtos,
		Pagination: domain.NewPagination(total, page, pageSize),
	}, nil
}

// stampNextSteps validates new step inputs and appends them, timestamped, to
// the existing sequence
func stampNextSteps(existing []domain.NextStep, inputs []domain.NextStepInput) ([]domain.NextStep, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	steps := existing
	for _, input := range inputs {
		if strings.TrimSpace(input.Description) == "" {
			return nil, fmt.Errorf("%w: next step description is required", ErrInvalidInput)
		}
		status := input.Status
		if status == "" {
			status = "pending"
		}
		steps = append(steps, domain.NextStep{
			Description: input.Description,
			Assignee:    input.Assignee,
			DueDate:     input.DueDate,
			Status:      status,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return steps, nil
}

func parseNextSteps(raw string) []domain.NextStep {
	if raw == "" {
		return nil
	}
	var steps []domain.NextStep
	if err := json.Unmarshal([]byte(raw), &steps); err != nil {
		return nil
	}
	return steps
}

func serializeNextSteps(steps []domain.NextStep) (string, error) {
	if len(steps) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(steps)
	if err != nil {
		return "", fmt.Errorf("failed to serialize next steps: %w", err)
	}
	return string(data), nil
}
