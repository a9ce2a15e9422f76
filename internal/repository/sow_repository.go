package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/presaleshub/crm-api/internal/domain"
	"gorm.io/gorm"
)

// sowSortColumns maps accepted sort keys to safe column references. Sort
// input never reaches the query directly; unknown keys are rejected.
var sowSortColumns = map[string]string{
	"sow_id":         "id",
	"sow_title":      "sow_title",
	"created_at":     "created_at",
	"contract_value": "contract_value",
	"opportunity_id": "opportunity_id",
	"rfb_id":         "rfb_id",
}

// SOWSortColumn resolves a client-supplied sort key against the allow-list
func SOWSortColumn(key string) (string, error) {
	if key == "" {
		return "created_at", nil
	}
	column, ok := sowSortColumns[key]
	if !ok {
		return "", fmt.Errorf("unsupported sort key: %s", key)
	}
	return column, nil
}

type SOWRepository struct {
	db *gorm.DB
}

func NewSOWRepository(db *gorm.DB) *SOWRepository {
	return &SOWRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *SOWRepository) WithTx(tx *gorm.DB) *SOWRepository {
	return &SOWRepository{db: tx}
}

func (r *SOWRepository) Create(ctx context.Context, sow *domain.SOW) error {
	return r.db.WithContext(ctx).Create(sow).Error
}

func (r *SOWRepository) GetByID(ctx context.Context, id uint) (*domain.SOW, error) {
	var sow domain.SOW
	err := r.db.WithContext(ctx).Preload("Documents").First(&sow, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sow, nil
}

func (r *SOWRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Select("Documents").Delete(&domain.SOW{BaseModel: domain.BaseModel{ID: id}}).Error
}

func (r *SOWRepository) InsertDocuments(ctx context.Context, documents []domain.SOWDocument) error {
	if len(documents) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&documents).Error
}

func (r *SOWRepository) GetDocument(ctx context.Context, documentID uint) (*domain.SOWDocument, error) {
	var document domain.SOWDocument
	err := r.db.WithContext(ctx).First(&document, "id = ?", documentID).Error
	if err != nil {
		return nil, err
	}
	return &document, nil
}

func (r *SOWRepository) DeleteDocument(ctx context.Context, documentID uint) error {
	return r.db.WithContext(ctx).Delete(&domain.SOWDocument{}, "id = ?", documentID).Error
}

// List returns one page of SOWs. The sort column must come through
// SOWSortColumn; order is restricted to asc/desc.
func (r *SOWRepository) List(ctx context.Context, page, pageSize int, filters *domain.SOWListFilters, sortColumn, sortOrder string) ([]domain.SOW, int64, error) {
	var sows []domain.SOW
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.SOW{})
	query = applySOWFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if sortOrder != "asc" {
		sortOrder = "desc"
	}

	offset := (page - 1) * pageSize
	err := query.Preload("Documents").
		Offset(offset).Limit(pageSize).
		Order(sortColumn + " " + sortOrder).
		Find(&sows).Error

	return sows, total, err
}

func (r *SOWRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.SOW{}).Count(&count).Error
	return count, err
}

func applySOWFilters(query *gorm.DB, filters *domain.SOWListFilters) *gorm.DB {
	if filters == nil {
		return query
	}
	if filters.OpportunityID != nil {
		query = query.Where("opportunity_id = ?", *filters.OpportunityID)
	}
	if filters.RFBID != nil {
		query = query.Where("rfb_id = ?", *filters.RFBID)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.Search != "" {
		pattern := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where("LOWER(sow_title) LIKE ? OR LOWER(scope) LIKE ?", pattern, pattern)
	}
	return query
}
