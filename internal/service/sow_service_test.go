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

func createSOWService(db *gorm.DB, store *fakeStorage) *service.SOWService {
	return service.NewSOWService(
		db,
		repository.NewSOWRepository(db),
		repository.NewOpportunityRepository(db),
		store,
		zap.NewNop(),
	)
}

func seedRFP(t *testing.T, db *gorm.DB, opportunityID uint) *domain.RFP {
	t.Helper()
	rfp := &domain.RFP{
		RFPTitle:      "Infrastructure RFP",
		Status:        domain.RFPStatusSubmitted,
		UserID:        1,
		OpportunityID: &opportunityID,
	}
	require.NoError(t, db.Create(rfp).Error)
	return rfp
}

func TestSOWService_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := newFakeStorage()
	svc := createSOWService(db, store)
	ctx := context.Background()

	opportunity := seedOpportunity(t, db)
	rfp := seedRFP(t, db, opportunity.ID)

	sow, err := svc.Create(ctx, &domain.CreateSOWRequest{
		SOWTitle:         "Implementation SOW",
		ContractCurrency: "USD",
		ContractValue:    250000,
		OpportunityID:    opportunity.ID,
		RFBID:            rfp.ID,
		UserID:           1,
	}, []service.FileUpload{
		upload("sow.pdf", domain.CategoryOther),
	})
	require.NoError(t, err)

	assert.Equal(t, "Implementation SOW", sow.SOWTitle)
	require.Len(t, sow.Documents, 1)
	assert.Equal(t, "sow.pdf", sow.Documents[0].OriginalName)
	assert.Len(t, store.files, 1)
}

func TestSOWService_Create_RequiresExistingOpportunity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := newFakeStorage()
	svc := createSOWService(db, store)

	_, err := svc.Create(context.Background(), &domain.CreateSOWRequest{
		SOWTitle:      "Implementation SOW",
		OpportunityID: 999,
		RFBID:         1,
		UserID:        1,
	}, nil)
	assert.ErrorIs(t, err, service.ErrInvalidOpportunity)
	assert.Empty(t, store.files)
}

func TestSOWService_List_SortAllowList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := newFakeStorage()
	svc := createSOWService(db, store)
	ctx := context.Background()

	opportunity := seedOpportunity(t, db)
	rfp := seedRFP(t, db, opportunity.ID)

	values := []float64{300, 100, 200}
	for _, value := range values {
		_, err := svc.Create(ctx, &domain.CreateSOWRequest{
			SOWTitle:      "SOW",
			ContractValue: value,
			OpportunityID: opportunity.ID,
			RFBID:         rfp.ID,
			UserID:        1,
		}, nil)
		require.NoError(t, err)
	}

	result, err := svc.List(ctx, 1, 10, &domain.SOWListFilters{
		SortBy:    "contract_value",
		SortOrder: "asc",
	})
	require.NoError(t, err)

	sows, ok := result.Data.([]domain.SOW)
	require.True(t, ok)
	require.Len(t, sows, 3)
	assert.Equal(t, float64(100), sows[0].ContractValue)
	assert.Equal(t, float64(300), sows[2].ContractValue)
}

func TestSOWService_List_RejectsUnknownSortKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := newFakeStorage()
	svc := createSOWService(db, store)

	_, err := svc.List(context.Background(), 1, 10, &domain.SOWListFilters{
		SortBy: "contract_value; DROP TABLE sows",
	})
	assert.ErrorIs(t, err, service.ErrInvalidSortKey)
}

func TestSOWService_List_SowIDSortsByPrimaryKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := newFakeStorage()
	svc := createSOWService(db, store)

	// sow_id is accepted as an alias for the primary key column
	_, err := svc.List(context.Background(), 1, 10, &domain.SOWListFilters{
		SortBy: "sow_id",
	})
	assert.NoError(t, err)
}

func TestSOWService_DocumentScopedToSOW(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := newFakeStorage()
	svc := createSOWService(db, store)
	ctx := context.Background()

	opportunity := seedOpportunity(t, db)
	rfp := seedRFP(t, db, opportunity.ID)

	first, err := svc.Create(ctx, &domain.CreateSOWRequest{
		SOWTitle:      "First SOW",
		OpportunityID: opportunity.ID,
		RFBID:         rfp.ID,
		UserID:        1,
	}, []service.FileUpload{upload("first.pdf", domain.CategoryOther)})
	require.NoError(t, err)

	second, err := svc.Create(ctx, &domain.CreateSOWRequest{
		SOWTitle:      "Second SOW",
		OpportunityID: opportunity.ID,
		RFBID:         rfp.ID,
		UserID:        1,
	}, nil)
	require.NoError(t, err)

	// Another SOW's id must not unlock the document
	_, _, err = svc.DownloadDocument(ctx, second.ID, first.Documents[0].ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	err = svc.DeleteDocument(ctx, second.ID, first.Documents[0].ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	require.NoError(t, svc.DeleteDocument(ctx, first.ID, first.Documents[0].ID))
	assert.Empty(t, store.files)
}

func TestSOWService_Delete_RemovesStoredFiles(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := newFakeStorage()
	svc := createSOWService(db, store)
	ctx := context.Background()

	opportunity := seedOpportunity(t, db)
	rfp := seedRFP(t, db, opportunity.ID)

	sow, err := svc.Create(ctx, &domain.CreateSOWRequest{
		SOWTitle:      "Implementation SOW",
		OpportunityID: opportunity.ID,
		RFBID:         rfp.ID,
		UserID:        1,
	}, []service.FileUpload{upload("sow.pdf", domain.CategoryOther)})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, sow.ID))
	assert.Empty(t, store.files)

	_, err = svc.GetByID(ctx, sow.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
