package service_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
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

// fakeStorage keeps uploads in memory and can be told to fail after a number
// of successful uploads.
type fakeStorage struct {
	files     map[string][]byte
	uploads   int
	failAfter int // -1 means never fail
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{files: map[string][]byte{}, failAfter: -1}
}

func (f *fakeStorage) Upload(ctx context.Context, prefix, filename, contentType string, data io.Reader) (string, int64, error) {
	if f.failAfter >= 0 && f.uploads >= f.failAfter {
		return "", 0, fmt.Errorf("storage unavailable")
	}
	content, err := io.ReadAll(data)
	if err != nil {
		return "", 0, err
	}
	f.uploads++
	name := fmt.Sprintf("%s/stored-%d", prefix, f.uploads)
	f.files[name] = content
	return name, int64(len(content)), nil
}

func (f *fakeStorage) Download(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	content, ok := f.files[storagePath]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", storagePath)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (f *fakeStorage) Delete(ctx context.Context, storagePath string) error {
	delete(f.files, storagePath)
	return nil
}

func createRFPService(db *gorm.DB, store *fakeStorage) *service.RFPService {
	return service.NewRFPService(
		db,
		repository.NewRFPRepository(db),
		repository.NewOpportunityRepository(db),
		store,
		zap.NewNop(),
	)
}

func seedOpportunity(t *testing.T, db *gorm.DB) *domain.Opportunity {
	t.Helper()
	opportunity := &domain.Opportunity{
		OpportunityName: "ERP Rollout",
		ApprovalStage:   domain.StageLevel1RFB,
		UserID:          1,
	}
	require.NoError(t, db.Create(opportunity).Error)
	return opportunity
}

func upload(name string, category domain.DocumentCategory) service.FileUpload {
	return service.FileUpload{
		Filename:    name,
		ContentType: "application/pdf",
		Category:    category,
		Data:        strings.NewReader("content of " + name),
	}
}

func TestRFPService_Create_WithDocuments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := newFakeStorage()
	svc := createRFPService(db, store)
	ctx := context.Background()

	opportunity := seedOpportunity(t, db)

	dto, err := svc.Create(ctx, &domain.CreateRFPRequest{
		RFPTitle:      "Infrastructure RFP",
		UserID:        1,
		OpportunityID: &opportunity.ID,
	}, []service.FileUpload{
		upload("proposal.pdf", domain.CategoryProposal),
		upload("pricing.xlsx", domain.CategoryCommercial),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.RFPStatusDraft, dto.Status)
	assert.Len(t, dto.Documents, 2)
	assert.Len(t, dto.DocumentsByCategory[domain.CategoryProposal], 1)
	assert.Len(t, dto.DocumentsByCategory[domain.CategoryCommercial], 1)
	assert.Len(t, store.files, 2)
}

func TestRFPService_Create_UnknownCategoryRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := newFakeStorage()
	svc := createRFPService(db, store)

	_, err := svc.Create(context.Background(), &domain.CreateRFPRequest{
		RFPTitle: "Infrastructure RFP",
		UserID:   1,
	}, []service.FileUpload{
		upload("notes.txt", domain.DocumentCategory("scribbles")),
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Empty(t, store.files)
}

func TestRFPService_Create_InvalidOpportunity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := newFakeStorage()
	svc := createRFPService(db, store)

	missing := uint(999)
	_, err := svc.Create(context.Background(), &domain.CreateRFPRequest{
		RFPTitle:      "Infrastructure RFP",
		UserID:        1,
		OpportunityID: &missing,
	}, nil)
	assert.ErrorIs(t, err, service.ErrInvalidOpportunity)
	assert.Empty(t, store.files)
}

func TestRFPService_Create_SubmittedAdvancesOpportunity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := newFakeStorage()
	svc := createRFPService(db, store)
	ctx := context.Background()

	opportunity := seedOpportunity(t, db)

	_, err := svc.Create(ctx, &domain.CreateRFPRequest{
		RFPTitle:      "Infrastructure RFP",
		Status:        string(domain.RFPStatusSubmitted),
		UserID:        1,
		OpportunityID: &opportunity.ID,
	}, nil)
	require.NoError(t, err)

	var refreshed domain.Opportunity
	require.NoError(t, db.First(&refreshed, opportunity.ID).Error)
	assert.Equal(t, domain.StageLevel2SOW, refreshed.ApprovalStage)
}

func TestRFPService_Create_DraftDoesNotAdvanceOpportunity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := newFakeStorage()
	svc := createRFPService(db, store)
	ctx := context.Background()

	opportunity := seedOpportunity(t, db)

	_, err := svc.Create(ctx, &domain.CreateRFPRequest{
		RFPTitle:      "Infrastructure RFP",
		UserID:        1,
		OpportunityID: &opportunity.ID,
	}, nil)
	require.NoError(t, err)

	var refreshed domain.Opportunity
	require.NoError(t, db.First(&refreshed, opportunity.ID).Error)
	assert.Equal(t, domain.StageLevel1RFB, refreshed.ApprovalStage)
}

func TestRFPService_Update_SubmitTransitionAdvancesOpportunity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := newFakeStorage()
	svc := createRFPService(db, store)
	ctx := context.Background()

	opportunity := seedOpportunity(t, db)

	created, err := svc.Create(ctx, &domain.CreateRFPRequest{
		RFPTitle:      "Infrastructure RFP",
		UserID:        1,
		OpportunityID: &opportunity.ID,
	}, nil)
	require.NoError(t, err)

	status := string(domain.RFPStatusSubmitted)
	_, err = svc.Update(ctx, created.ID, &domain.UpdateRFPRequest{Status: &status}, nil)
	require.NoError(t, err)

	var refreshed domain.Opportunity
	require.NoError(t, db.First(&refreshed, opportunity.ID).Error)
	assert.Equal(t, domain.StageLevel2SOW, refreshed.ApprovalStage)
}

func TestRFPService_Create_UploadFailureCleansUpEarlierFiles(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := newFakeStorage()
	store.failAfter = 1 // first upload succeeds, second fails
	svc := createRFPService(db, store)

	_, err := svc.Create(context.Background(), &domain.CreateRFPRequest{
		RFPTitle: "Infrastructure RFP",
		UserID:   1,
	}, []service.FileUpload{
		upload("first.pdf", domain.CategoryProposal),
		upload("second.pdf", domain.CategoryOther),
	})
	require.Error(t, err)
	assert.Empty(t, store.files, "the already-written file must be removed")

	var count int64
	require.NoError(t, db.Model(&domain.RFP{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRFPService_Create_TxFailureCleansUpStoredFiles(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := newFakeStorage()
	svc := createRFPService(db, store)

	// Break the document table so the transaction fails after the files
	// were written to storage.
	require.NoError(t, db.Migrator().DropTable(&domain.RFPDocument{}))

	_, err := svc.Create(context.Background(), &domain.CreateRFPRequest{
		RFPTitle: "Infrastructure RFP",
		UserID:   1,
	}, []service.FileUpload{
		upload("proposal.pdf", domain.CategoryProposal),
	})
	require.Error(t, err)
	assert.Empty(t, store.files, "no orphaned files after a rolled-back transaction")

	var count int64
	require.NoError(t, db.Model(&domain.RFP{}).Count(&count).Error)
	assert.Zero(t, count, "the rfp row must be rolled back with the documents")
}

func TestRFPService_Delete_RemovesStoredFiles(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := newFakeStorage()
	svc := createRFPService(db, store)
	ctx := context.Background()

	created, err := svc.Create(ctx, &domain.CreateRFPRequest{
		RFPTitle: "Infrastructure RFP",
		UserID:   1,
	}, []service.FileUpload{
		upload("proposal.pdf", domain.CategoryProposal),
	})
	require.NoError(t, err)
	require.Len(t, store.files, 1)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.Empty(t, store.files)

	_, err = svc.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestRFPService_DownloadDocument(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := newFakeStorage()
	svc := createRFPService(db, store)
	ctx := context.Background()

	created, err := svc.Create(ctx, &domain.CreateRFPRequest{
		RFPTitle: "Infrastructure RFP",
		UserID:   1,
	}, []service.FileUpload{
		upload("proposal.pdf", domain.CategoryProposal),
	})
	require.NoError(t, err)
	require.Len(t, created.Documents, 1)

	document, reader, err := svc.DownloadDocument(ctx, created.ID, created.Documents[0].ID)
	require.NoError(t, err)
	defer reader.Close()

	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "content of proposal.pdf", string(content))
	assert.Equal(t, "proposal.pdf", document.OriginalName)

	_, _, err = svc.DownloadDocument(ctx, created.ID, 9999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
