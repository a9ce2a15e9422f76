package service_test

import (
	"context"
	"testing"

	"github.com/presaleshub/crm-api/internal/domain"
	"github.com/presaleshub/crm-api/internal/repository"
	"github.com/presaleshub/crm-api/internal/service"
	"github.com/presaleshub/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func createReferenceService(db *gorm.DB) *service.ReferenceService {
	return service.NewReferenceService(repository.NewReferenceRepository(db), zap.NewNop())
}

func TestReferenceService_ListRegions_LoadsCountry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createReferenceService(db)
	ctx := context.Background()

	country, err := svc.CreateCountry(ctx, &domain.CreateCountryRequest{Name: "Norway", Code: "NO"})
	require.NoError(t, err)

	_, err = svc.CreateRegion(ctx, &domain.CreateRegionRequest{Name: "Oslo", CountryID: &country.ID})
	require.NoError(t, err)
	_, err = svc.CreateRegion(ctx, &domain.CreateRegionRequest{Name: "Remote"})
	require.NoError(t, err)

	regions, err := svc.ListRegions(ctx)
	require.NoError(t, err)
	require.Len(t, regions, 2)

	assert.Equal(t, "Oslo", regions[0].Name)
	require.NotNil(t, regions[0].Country)
	assert.Equal(t, "Norway", regions[0].Country.Name)
	assert.Nil(t, regions[1].Country)
}

func TestReferenceService_ListCountries_OrderedByName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createReferenceService(db)
	ctx := context.Background()

	_, err := svc.CreateCountry(ctx, &domain.CreateCountryRequest{Name: "Sweden", Code: "SE"})
	require.NoError(t, err)
	_, err = svc.CreateCountry(ctx, &domain.CreateCountryRequest{Name: "Norway", Code: "NO"})
	require.NoError(t, err)

	countries, err := svc.ListCountries(ctx)
	require.NoError(t, err)
	require.Len(t, countries, 2)
	assert.Equal(t, "Norway", countries[0].Name)
	assert.Equal(t, "Sweden", countries[1].Name)
}

func TestReferenceService_ListRoles(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createReferenceService(db)
	ctx := context.Background()

	_, err := svc.CreateRole(ctx, &domain.CreateRoleRequest{Name: "Presales Member"})
	require.NoError(t, err)
	_, err = svc.CreateRole(ctx, &domain.CreateRoleRequest{Name: "Admin", Description: "Full access"})
	require.NoError(t, err)

	roles, err := svc.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "Presales Member", roles[0].Name)
	assert.Equal(t, "Full access", roles[1].Description)
}

func TestReferenceService_Create_DuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createReferenceService(db)
	ctx := context.Background()

	_, err := svc.CreateRole(ctx, &domain.CreateRoleRequest{Name: "Admin"})
	require.NoError(t, err)
	_, err = svc.CreateRole(ctx, &domain.CreateRoleRequest{Name: "Admin"})
	assert.ErrorIs(t, err, service.ErrConflict)

	_, err = svc.CreateRegion(ctx, &domain.CreateRegionRequest{Name: "EMEA"})
	require.NoError(t, err)
	_, err = svc.CreateRegion(ctx, &domain.CreateRegionRequest{Name: "EMEA"})
	assert.ErrorIs(t, err, service.ErrConflict)

	_, err = svc.CreateCountry(ctx, &domain.CreateCountryRequest{Name: "Norway"})
	require.NoError(t, err)
	_, err = svc.CreateCountry(ctx, &domain.CreateCountryRequest{Name: "Norway"})
	assert.ErrorIs(t, err, service.ErrConflict)
}
