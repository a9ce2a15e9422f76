package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/presaleshub/crm-api/internal/domain"
	"gorm.io/gorm"
)

// ClientFilters narrows a client list query. Filters are AND-combined.
type ClientFilters struct {
	Search     string
	Status     *domain.ClientStatus
	Industry   string
	ClientType string
	UserID     *uint
}

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *ClientRepository) WithTx(tx *gorm.DB) *ClientRepository {
	return &ClientRepository{db: tx}
}

func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *ClientRepository) GetByID(ctx context.Context, id uint) (*domain.Client, error) {
	var client domain.Client
	err := r.db.WithContext(ctx).
		Preload("Contacts").
		Preload("Addresses", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, id ASC")
		}).
		First(&client, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) Update(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Save(client).Error
}

// UpdateCode stamps the generated display code after the id is known
func (r *ClientRepository) UpdateCode(ctx context.Context, id uint, code string) error {
	return r.db.WithContext(ctx).Model(&domain.Client{}).
		Where("id = ?", id).
		Update("client_code", code).Error
}

func (r *ClientRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Select("Contacts", "Addresses").Delete(&domain.Client{BaseModel: domain.BaseModel{ID: id}}).Error
}

// DeleteContacts removes every contact for a client. Used by the update
// workflow, which replaces the contact list wholesale.
func (r *ClientRepository) DeleteContacts(ctx context.Context, clientID uint) error {
	return r.db.WithContext(ctx).Where("client_id = ?", clientID).Delete(&domain.ClientContact{}).Error
}

// DeleteAddresses removes every address for a client
func (r *ClientRepository) DeleteAddresses(ctx context.Context, clientID uint) error {
	return r.db.WithContext(ctx).Where("client_id = ?", clientID).Delete(&domain.ClientAddress{}).Error
}

func (r *ClientRepository) InsertContacts(ctx context.Context, contacts []domain.ClientContact) error {
	if len(contacts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&contacts).Error
}

func (r *ClientRepository) InsertAddresses(ctx context.Context, addresses []domain.ClientAddress) error {
	if len(addresses) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&addresses).Error
}

// List returns one page of clients with the total count computed from the
// same predicate, so pagination metadata stays consistent with the rows.
func (r *ClientRepository) List(ctx context.Context, page, pageSize int, filters *ClientFilters) ([]domain.Client, int64, error) {
	var clients []domain.Client
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Client{})
	query = applyClientFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&clients).Error

	return clients, total, err
}

func (r *ClientRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Client{}).Count(&count).Error
	return count, err
}

func applyClientFilters(query *gorm.DB, filters *ClientFilters) *gorm.DB {
	if filters == nil {
		return query
	}
	if filters.Search != "" {
		pattern := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where("LOWER(client_name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Industry != "" {
		query = query.Where("industry = ?", filters.Industry)
	}
	if filters.ClientType != "" {
		query = query.Where("client_type = ?", filters.ClientType)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	return query
}

// NextCode formats the generated client display code from the row id
func NextCode(id uint) string {
	return fmt.Sprintf("CL-%05d", id)
}
