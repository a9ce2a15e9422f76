package repository

import (
	"context"
	"strings"

	"github.com/presaleshub/crm-api/internal/domain"
	"gorm.io/gorm"
)

// UserFilters narrows a user list query
type UserFilters struct {
	Search string
	Status *domain.UserStatus
	RoleID *uint
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetWithRoles loads a user with role and region assignments. The auth
// middleware calls this on every authenticated request.
func (r *UserRepository) GetWithRoles(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Preload("Roles").
		Preload("Regions").
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Preload("Roles").
		Preload("Regions").
		First(&user, "LOWER(email) = ?", strings.ToLower(email)).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Omit("Roles", "Regions").Save(user).Error
}

func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Select("Roles", "Regions").Delete(&domain.User{BaseModel: domain.BaseModel{ID: id}}).Error
}

// ReplaceRoles swaps the user's role assignments for the given set
func (r *UserRepository) ReplaceRoles(ctx context.Context, user *domain.User, roles []domain.Role) error {
	return r.db.WithContext(ctx).Model(user).Association("Roles").Replace(roles)
}

// ReplaceRegions swaps the user's region assignments for the given set
func (r *UserRepository) ReplaceRegions(ctx context.Context, user *domain.User, regions []domain.Region) error {
	return r.db.WithContext(ctx).Model(user).Association("Regions").Replace(regions)
}

func (r *UserRepository) List(ctx context.Context, page, pageSize int, filters *UserFilters) ([]domain.User, int64, error) {
	var users []domain.User
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.User{})
	query = applyUserFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("Roles").Preload("Regions").
		Offset(offset).Limit(pageSize).
		Order("created_at DESC").
		Find(&users).Error

	return users, total, err
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&count).Error
	return count, err
}

func applyUserFilters(query *gorm.DB, filters *UserFilters) *gorm.DB {
	if filters == nil {
		return query
	}
	if filters.Search != "" {
		pattern := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.RoleID != nil {
		query = query.Where("id IN (SELECT user_id FROM user_roles WHERE role_id = ?)", *filters.RoleID)
	}
	return query
}
