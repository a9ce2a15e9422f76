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

func createClientService(db *gorm.DB) *service.ClientService {
	return service.NewClientService(db, repository.NewClientRepository(db), zap.NewNop())
}

func TestClientService_Create_GeneratesCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createClientService(db)
	ctx := context.Background()

	resp, err := svc.Create(ctx, &domain.CreateClientRequest{
		ClientName: "Acme Corp",
		Email:      "contact@acme.example",
		UserID:     1,
	})
	require.NoError(t, err)
	require.NotZero(t, resp.ClientID)
	assert.Equal(t, "CL-00001", resp.ClientCode)

	second, err := svc.Create(ctx, &domain.CreateClientRequest{
		ClientName: "Beta Ltd",
		UserID:     1,
	})
	require.NoError(t, err)
	assert.Equal(t, "CL-00002", second.ClientCode)
}

func TestClientService_Create_WithContactsAndAddresses(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createClientService(db)
	ctx := context.Background()

	resp, err := svc.Create(ctx, &domain.CreateClientRequest{
		ClientName: "Acme Corp",
		UserID:     1,
		Contacts: []domain.ContactInput{
			{Name: "Jane Smith", Email: "jane@acme.example", Designation: "CTO"},
			{Name: "Raj Patel", Phone: "+4712345678"},
		},
		Addresses: []domain.AddressInput{
			{AddressLine1: "1 Main St", City: "Oslo"},
			{AddressLine1: "2 Harbor Rd", City: "Bergen"},
		},
	})
	require.NoError(t, err)

	client, err := svc.GetByID(ctx, resp.ClientID)
	require.NoError(t, err)
	assert.Len(t, client.Contacts, 2)
	require.Len(t, client.Addresses, 2)

	// No address was marked primary, so the first one is promoted
	assert.True(t, client.Addresses[0].IsPrimary)
	assert.Equal(t, "1 Main St", client.Addresses[0].AddressLine1)
	assert.False(t, client.Addresses[1].IsPrimary)
}

func TestClientService_Create_RollsBackOnChildInsertFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createClientService(db)
	ctx := context.Background()

	// Losing the address table makes the last insert of the transaction fail
	// after the client and its contacts were already written
	require.NoError(t, db.Migrator().DropTable(&domain.ClientAddress{}))

	_, err := svc.Create(ctx, &domain.CreateClientRequest{
		ClientName: "Acme Corp",
		UserID:     1,
		Contacts: []domain.ContactInput{
			{Name: "Jane Smith", Email: "jane@acme.example"},
		},
		Addresses: []domain.AddressInput{
			{AddressLine1: "1 Main St", City: "Oslo"},
		},
	})
	require.Error(t, err)

	var clients int64
	require.NoError(t, db.Model(&domain.Client{}).Count(&clients).Error)
	assert.Zero(t, clients)

	var contacts int64
	require.NoError(t, db.Model(&domain.ClientContact{}).Count(&contacts).Error)
	assert.Zero(t, contacts)
}

func TestClientService_Create_FirstExplicitPrimaryWins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createClientService(db)
	ctx := context.Background()

	resp, err := svc.Create(ctx, &domain.CreateClientRequest{
		ClientName: "Acme Corp",
		UserID:     1,
		Addresses: []domain.AddressInput{
			{AddressLine1: "1 Main St"},
			{AddressLine1: "2 Harbor Rd", IsPrimary: true},
			{AddressLine1: "3 Hill Ave", IsPrimary: true},
		},
	})
	require.NoError(t, err)

	client, err := svc.GetByID(ctx, resp.ClientID)
	require.NoError(t, err)
	require.Len(t, client.Addresses, 3)

	primaries := 0
	for _, addr := range client.Addresses {
		if addr.IsPrimary {
			primaries++
			assert.Equal(t, "2 Harbor Rd", addr.AddressLine1)
		}
	}
	assert.Equal(t, 1, primaries)
}

func TestClientService_Update_ReplacesContactsWholesale(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createClientService(db)
	ctx := context.Background()

	resp, err := svc.Create(ctx, &domain.CreateClientRequest{
		ClientName: "Acme Corp",
		UserID:     1,
		Contacts: []domain.ContactInput{
			{Name: "Old Contact"},
		},
		Addresses: []domain.AddressInput{
			{AddressLine1: "1 Main St", IsPrimary: true},
		},
	})
	require.NoError(t, err)

	name := "Acme Corporation"
	updated, err := svc.Update(ctx, resp.ClientID, &domain.UpdateClientRequest{
		ClientName: &name,
		Contacts: []domain.ContactInput{
			{Name: "New Contact A"},
			{Name: "New Contact B"},
		},
		Addresses: []domain.AddressInput{
			{AddressLine1: "9 New Rd"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme Corporation", updated.ClientName)
	require.Len(t, updated.Contacts, 2)
	assert.Equal(t, "New Contact A", updated.Contacts[0].Name)
	require.Len(t, updated.Addresses, 1)
	assert.True(t, updated.Addresses[0].IsPrimary)
}

func TestClientService_Update_CoalesceKeepsOmittedFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createClientService(db)
	ctx := context.Background()

	resp, err := svc.Create(ctx, &domain.CreateClientRequest{
		ClientName: "Acme Corp",
		Email:      "contact@acme.example",
		Industry:   "Manufacturing",
		UserID:     1,
	})
	require.NoError(t, err)

	email := "sales@acme.example"
	updated, err := svc.Update(ctx, resp.ClientID, &domain.UpdateClientRequest{
		Email: &email,
	})
	require.NoError(t, err)

	assert.Equal(t, "sales@acme.example", updated.Email)
	assert.Equal(t, "Acme Corp", updated.ClientName)
	assert.Equal(t, "Manufacturing", updated.Industry)
}

func TestClientService_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createClientService(db)

	_, err := svc.GetByID(context.Background(), 9999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestClientService_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createClientService(db)
	ctx := context.Background()

	resp, err := svc.Create(ctx, &domain.CreateClientRequest{
		ClientName: "Acme Corp",
		UserID:     1,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, resp.ClientID))

	_, err = svc.GetByID(ctx, resp.ClientID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, resp.ClientID), service.ErrNotFound)
}

func TestClientService_List_Pagination(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createClientService(db)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := svc.Create(ctx, &domain.CreateClientRequest{
			ClientName: "Client",
			UserID:     1,
		})
		require.NoError(t, err)
	}

	result, err := svc.List(ctx, 1, 5, &repository.ClientFilters{})
	require.NoError(t, err)
	assert.Equal(t, int64(12), result.Pagination.Total)
	assert.Equal(t, 3, result.Pagination.TotalPages)
	assert.True(t, result.Pagination.HasNextPage)
	assert.False(t, result.Pagination.HasPreviousPage)

	last, err := svc.List(ctx, 3, 5, &repository.ClientFilters{})
	require.NoError(t, err)
	assert.False(t, last.Pagination.HasNextPage)
	assert.True(t, last.Pagination.HasPreviousPage)

	clients, ok := last.Data.([]domain.Client)
	require.True(t, ok)
	assert.Len(t, clients, 2)
}

func TestClientService_List_ClampsPageSize(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createClientService(db)

	result, err := svc.List(context.Background(), 0, 0, &repository.ClientFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pagination.CurrentPage)
	assert.Equal(t, 10, result.Pagination.PageSize)

	result, err = svc.List(context.Background(), 1, 500, &repository.ClientFilters{})
	require.NoError(t, err)
	assert.Equal(t, 100, result.Pagination.PageSize)
}
