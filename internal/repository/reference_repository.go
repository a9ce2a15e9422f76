package repository

import (
	"context"

	"github.com/presaleshub/crm-api/internal/domain"
	"gorm.io/gorm"
)

// ReferenceRepository serves the small lookup tables: roles, regions and
// countries. These change rarely and are always listed in full.
type ReferenceRepository struct {
	db *gorm.DB
}

func NewReferenceRepository(db *gorm.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

func (r *ReferenceRepository) ListRoles(ctx context.Context) ([]domain.Role, error) {
	var roles []domain.Role
	err := r.db.WithContext(ctx).Order("id").Find(&roles).Error
	return roles, err
}

func (r *ReferenceRepository) GetRolesByIDs(ctx context.Context, ids []uint) ([]domain.Role, error) {
	var roles []domain.Role
	if len(ids) == 0 {
		return roles, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&roles).Error
	return roles, err
}

func (r *ReferenceRepository) GetRoleByName(ctx context.Context, name string) (*domain.Role, error) {
	var role domain.Role
	err := r.db.WithContext(ctx).First(&role, "name = ?", name).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *ReferenceRepository) CreateRole(ctx context.Context, role *domain.Role) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *ReferenceRepository) ListRegions(ctx context.Context) ([]domain.Region, error) {
	var regions []domain.Region
	err := r.db.WithContext(ctx).Preload("Country").Order("id").Find(&regions).Error
	return regions, err
}

func (r *ReferenceRepository) GetRegionsByIDs(ctx context.Context, ids []uint) ([]domain.Region, error) {
	var regions []domain.Region
	if len(ids) == 0 {
		return regions, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&regions).Error
	return regions, err
}

func (r *ReferenceRepository) GetRegionByName(ctx context.Context, name string) (*domain.Region, error) {
	var region domain.Region
	err := r.db.WithContext(ctx).First(&region, "name = ?", name).Error
	if err != nil {
		return nil, err
	}
	return &region, nil
}

func (r *ReferenceRepository) CreateRegion(ctx context.Context, region *domain.Region) error {
	return r.db.WithContext(ctx).Create(region).Error
}

func (r *ReferenceRepository) ListCountries(ctx context.Context) ([]domain.Country, error) {
	var countries []domain.Country
	err := r.db.WithContext(ctx).Order("name").Find(&countries).Error
	return countries, err
}

func (r *ReferenceRepository) GetCountryByName(ctx context.Context, name string) (*domain.Country, error) {
	var country domain.Country
	err := r.db.WithContext(ctx).First(&country, "name = ?", name).Error
	if err != nil {
		return nil, err
	}
	return &country, nil
}

func (r *ReferenceRepository) CreateCountry(ctx context.Context, country *domain.Country) error {
	return r.db.WithContext(ctx).Create(country).Error
}
