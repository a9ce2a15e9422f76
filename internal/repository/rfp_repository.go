package repository

import (
	"context"
	"strings"

	"github.com/presaleshub/crm-api/internal/domain"
	"gorm.io/gorm"
)

// RFPFilters narrows an RFP list query
type RFPFilters struct {
	Search        string
	Status        *domain.RFPStatus
	RFPType       string
	OpportunityID *uint
	UserID        *uint
}

type RFPRepository struct {
	db *gorm.DB
}

func NewRFPRepository(db *gorm.DB) *RFPRepository {
	return &RFPRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *RFPRepository) WithTx(tx *gorm.DB) *RFPRepository {
	return &RFPRepository{db: tx}
}

func (r *RFPRepository) Create(ctx context.Context, rfp *domain.RFP) error {
	return r.db.WithContext(ctx).Create(rfp).Error
}

func (r *RFPRepository) GetByID(ctx context.Context, id uint) (*domain.RFP, error) {
	var rfp domain.RFP
	err := r.db.WithContext(ctx).Preload("Documents").First(&rfp, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &rfp, nil
}

// GetByOpportunity returns every RFP linked to an opportunity
func (r *RFPRepository) GetByOpportunity(ctx context.Context, opportunityID uint) ([]domain.RFP, error) {
	var rfps []domain.RFP
	err := r.db.WithContext(ctx).Preload("Documents").
		Where("opportunity_id = ?", opportunityID).
		Order("created_at DESC").
		Find(&rfps).Error
	return rfps, err
}

func (r *RFPRepository) Update(ctx context.Context, rfp *domain.RFP) error {
	return r.db.WithContext(ctx).Save(rfp).Error
}

func (r *RFPRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Select("Documents").Delete(&domain.RFP{BaseModel: domain.BaseModel{ID: id}}).Error
}

func (r *RFPRepository) InsertDocuments(ctx context.Context, documents []domain.RFPDocument) error {
	if len(documents) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&documents).Error
}

func (r *RFPRepository) GetDocuments(ctx context.Context, rfpID uint) ([]domain.RFPDocument, error) {
	var documents []domain.RFPDocument
	err := r.db.WithContext(ctx).Where("rfp_id = ?", rfpID).Order("id").Find(&documents).Error
	return documents, err
}

func (r *RFPRepository) List(ctx context.Context, page, pageSize int, filters *RFPFilters) ([]domain.RFP, int64, error) {
	var rfps []domain.RFP
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.RFP{})
	query = applyRFPFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("Documents").Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&rfps).Error

	return rfps, total, err
}

func (r *RFPRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.RFP{}).Count(&count).Error
	return count, err
}

func applyRFPFilters(query *gorm.DB, filters *RFPFilters) *gorm.DB {
	if filters == nil {
		return query
	}
	if filters.Search != "" {
		pattern := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where("LOWER(rfp_title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.RFPType != "" {
		query = query.Where("rfp_type = ?", filters.RFPType)
	}
	if filters.OpportunityID != nil {
		query = query.Where("opportunity_id = ?", *filters.OpportunityID)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	return query
}
