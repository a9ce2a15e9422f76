package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/presaleshub/crm-api/internal/domain"
	"github.com/presaleshub/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReferenceService serves the lookup tables backing user assignment forms
type ReferenceService struct {
	referenceRepo *repository.ReferenceRepository
	logger        *zap.Logger
}

func NewReferenceService(referenceRepo *repository.ReferenceRepository, logger *zap.Logger) *ReferenceService {
	return &ReferenceService{
		referenceRepo: referenceRepo,
		logger:        logger,
	}
}

func (s *ReferenceService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.referenceRepo.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

func (s *ReferenceService) ListRegions(ctx context.Context) ([]domain.Region, error) {
	regions, err := s.referenceRepo.ListRegions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}
	return regions, nil
}

func (s *ReferenceService) ListCountries(ctx context.Context) ([]domain.Country, error) {
	countries, err := s.referenceRepo.ListCountries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}
	return countries, nil
}

// CreateRole adds a role with a unique name
func (s *ReferenceService) CreateRole(ctx context.Context, req *domain.CreateRoleRequest) (*domain.Role, error) {
	name := strings.TrimSpace(req.Name)
	if _, err := s.referenceRepo.GetRoleByName(ctx, name); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check role name: %w", err)
	}

	role := &domain.Role{Name: name, Description: req.Description}
	if err := s.referenceRepo.CreateRole(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", translateDBError(err))
	}
	s.logger.Info("role created", zap.Uint("role_id", role.ID), zap.String("name", role.Name))
	return role, nil
}

// CreateRegion adds a region with a unique name
func (s *ReferenceService) CreateRegion(ctx context.Context, req *domain.CreateRegionRequest) (*domain.Region, error) {
	name := strings.TrimSpace(req.Name)
	if _, err := s.referenceRepo.GetRegionByName(ctx, name); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check region name: %w", err)
	}

	region := &domain.Region{Name: name, CountryID: req.CountryID, IsActive: true}
	if err := s.referenceRepo.CreateRegion(ctx, region); err != nil {
		return nil, fmt.Errorf("failed to create region: %w", translateDBError(err))
	}
	s.logger.Info("region created", zap.Uint("region_id", region.ID), zap.String("name", region.Name))
	return region, nil
}

// CreateCountry adds a country with a unique name
func (s *ReferenceService) CreateCountry(ctx context.Context, req *domain.CreateCountryRequest) (*domain.Country, error) {
	name := strings.TrimSpace(req.Name)
	if _, err := s.referenceRepo.GetCountryByName(ctx, name); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check country name: %w", err)
	}

	country := &domain.Country{Name: name, Code: req.Code, IsActive: true}
	if err := s.referenceRepo.CreateCountry(ctx, country); err != nil {
		return nil, fmt.Errorf("failed to create country: %w", translateDBError(err))
	}
	s.logger.Info("country created", zap.Uint("country_id", country.ID), zap.String("name", country.Name))
	return country, nil
}
