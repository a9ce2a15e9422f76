package repository

import (
	"context"
	"math"
	"strings"

	"github.com/presaleshub/crm-api/internal/domain"
	"gorm.io/gorm"
)

// OpportunityFilters narrows an opportunity list query
type OpportunityFilters struct {
	Search          string
	TriageStatus    string
	PipelineStatus  string
	OpportunityType string
	ApprovalStage   *domain.ApprovalStage
	UserID          *uint
}

type OpportunityRepository struct {
	db *gorm.DB
}

func NewOpportunityRepository(db *gorm.DB) *OpportunityRepository {
	return &OpportunityRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *OpportunityRepository) WithTx(tx *gorm.DB) *OpportunityRepository {
	return &OpportunityRepository{db: tx}
}

func (r *OpportunityRepository) Create(ctx context.Context, opportunity *domain.Opportunity) error {
	return r.db.WithContext(ctx).Create(opportunity).Error
}

func (r *OpportunityRepository) GetByID(ctx context.Context, id uint) (*domain.Opportunity, error) {
	var opportunity domain.Opportunity
	err := r.db.WithContext(ctx).First(&opportunity, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &opportunity, nil
}

func (r *OpportunityRepository) Update(ctx context.Context, opportunity *domain.Opportunity) error {
	return r.db.WithContext(ctx).Save(opportunity).Error
}

func (r *OpportunityRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Opportunity{}, "id = ?", id).Error
}

// Exists reports whether an opportunity row exists
func (r *OpportunityRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Opportunity{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// AdvanceStage sets the approval stage. Setting the same stage again is
// harmless; the transition is one-way and idempotent.
func (r *OpportunityRepository) AdvanceStage(ctx context.Context, id uint, stage domain.ApprovalStage) error {
	return r.db.WithContext(ctx).Model(&domain.Opportunity{}).
		Where("id = ?", id).
		Update("approval_stage", stage).Error
}

func (r *OpportunityRepository) List(ctx context.Context, page, pageSize int, filters *OpportunityFilters) ([]domain.Opportunity, int64, error) {
	var opportunities []domain.Opportunity
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Opportunity{})
	query = applyOpportunityFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&opportunities).Error

	return opportunities, total, err
}

func (r *OpportunityRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Opportunity{}).Count(&count).Error
	return count, err
}

// CountByStage groups opportunities by approval stage for the dashboard funnel
func (r *OpportunityRepository) CountByStage(ctx context.Context) ([]domain.StageCount, error) {
	var rows []domain.StageCount
	err := r.db.WithContext(ctx).Model(&domain.Opportunity{}).
		Select("approval_stage AS stage, COUNT(*) AS count").
		Group("approval_stage").
		Order("approval_stage").
		Scan(&rows).Error
	return rows, err
}

// CountBySource groups opportunities by lead source
func (r *OpportunityRepository) CountBySource(ctx context.Context) ([]domain.SourceCount, error) {
	var rows []domain.SourceCount
	err := r.db.WithContext(ctx).Model(&domain.Opportunity{}).
		Select("lead_source AS source, COUNT(*) AS count").
		Group("lead_source").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

// SalesPerformance aggregates opportunity outcomes per owning user
func (r *OpportunityRepository) SalesPerformance(ctx context.Context) ([]domain.SalesPerformanceRow, error) {
	var rows []domain.SalesPerformanceRow
	err := r.db.WithContext(ctx).Model(&domain.Opportunity{}).
		Select(`opportunities.user_id AS user_id,
			users.full_name AS full_name,
			COUNT(*) AS opportunities,
			COALESCE(SUM(opportunities.amount), 0) AS pipeline_value,
			SUM(CASE WHEN opportunities.pipeline_status = 'Won' THEN 1 ELSE 0 END) AS won`).
		Joins("JOIN users ON users.id = opportunities.user_id").
		Group("opportunities.user_id, users.full_name").
		Order("pipeline_value DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].Opportunities > 0 {
			// Win rate is a whole percentage, not a fraction
			rows[i].WinRate = math.Round(float64(rows[i].Won) / float64(rows[i].Opportunities) * 100)
		}
	}
	return rows, nil
}

// PipelineValueByCurrency sums open pipeline value grouped by currency
func (r *OpportunityRepository) PipelineValueByCurrency(ctx context.Context) (map[string]float64, error) {
	var rows []struct {
		Currency string
		Total    float64
	}
	err := r.db.WithContext(ctx).Model(&domain.Opportunity{}).
		Select("currency, COALESCE(SUM(amount), 0) AS total").
		Group("currency").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	values := make(map[string]float64, len(rows))
	for _, row := range rows {
		currency := row.Currency
		if currency == "" {
			currency = "USD"
		}
		values[currency] += row.Total
	}
	return values, nil
}

// ListAll streams every opportunity for the warehouse snapshot export
func (r *OpportunityRepository) ListAll(ctx context.Context) ([]domain.Opportunity, error) {
	var opportunities []domain.Opportunity
	err := r.db.WithContext(ctx).Order("id").Find(&opportunities).Error
	return opportunities, err
}

func applyOpportunityFilters(query *gorm.DB, filters *OpportunityFilters) *gorm.DB {
	if filters == nil {
		return query
	}
	if filters.Search != "" {
		pattern := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where("LOWER(opportunity_name) LIKE ? OR LOWER(client_name) LIKE ?", pattern, pattern)
	}
	if filters.TriageStatus != "" {
		query = query.Where("triage_status = ?", filters.TriageStatus)
	}
	if filters.PipelineStatus != "" {
		query = query.Where("pipeline_status = ?", filters.PipelineStatus)
	}
	if filters.OpportunityType != "" {
		query = query.Where("opportunity_type = ?", filters.OpportunityType)
	}
	if filters.ApprovalStage != nil {
		query = query.Where("approval_stage = ?", *filters.ApprovalStage)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	return query
}
