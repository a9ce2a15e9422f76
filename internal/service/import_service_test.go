package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/presaleshub/crm-api/internal/domain"
	"github.com/presaleshub/crm-api/internal/service"
	"github.com/presaleshub/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func createImportService(db *gorm.DB) *service.ImportService {
	clients := createClientService(db)
	opportunities := createOpportunityService(db)
	return service.NewImportService(clients, opportunities, zap.NewNop())
}

func TestImportService_ImportClients_RowFailureDoesNotAbort(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createImportService(db)

	csv := "client_name,email,status\n" +
		"Acme Corp,contact@acme.example,Active\n" +
		",missing-name@example.com,Active\n" +
		"Beta Ltd,,Prospect\n"

	result, err := svc.ImportClients(context.Background(), 1, strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Success)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 1, result.Errors[0].Index)
	assert.Contains(t, result.Errors[0].Error, "client_name")
	assert.Equal(t, "missing-name@example.com", result.Errors[0].Data["email"])

	var count int64
	require.NoError(t, db.Model(&domain.Client{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestImportService_ImportClients_InvalidStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createImportService(db)

	csv := "client_name,status\n" +
		"Acme Corp,Dormant\n"

	result, err := svc.ImportClients(context.Background(), 1, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Errors[0].Error, "status")
}

func TestImportService_ImportClients_RaggedRowsFailWholeFile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createImportService(db)

	csv := "client_name,email\n" +
		"Acme Corp,contact@acme.example,unexpected-extra\n"

	_, err := svc.ImportClients(context.Background(), 1, strings.NewReader(csv))
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestImportService_ImportClients_EmptyStream(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createImportService(db)

	_, err := svc.ImportClients(context.Background(), 1, strings.NewReader(""))
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	// A header with no data rows is rejected the same way
	_, err = svc.ImportClients(context.Background(), 1, strings.NewReader("client_name,email\n"))
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestImportService_ImportClients_HeaderCaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createImportService(db)

	csv := "Client_Name, Email\n" +
		"Acme Corp,contact@acme.example\n"

	result, err := svc.ImportClients(context.Background(), 1, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
}

func TestImportService_ImportOpportunities(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createImportService(db)

	csv := "opportunity_name,amount,probability,currency\n" +
		"ERP Rollout,125000,60,USD\n" +
		"Bad Amount,not-a-number,50,USD\n" +
		"Bad Probability,1000,150,USD\n" +
		"Plain Deal,,,\n"

	result, err := svc.ImportOpportunities(context.Background(), 7, strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 2, result.Success)
	assert.Equal(t, 2, result.Failed)

	indexes := []int{result.Errors[0].Index, result.Errors[1].Index}
	assert.Equal(t, []int{1, 2}, indexes)

	var opportunities []domain.Opportunity
	require.NoError(t, db.Order("id").Find(&opportunities).Error)
	require.Len(t, opportunities, 2)
	assert.Equal(t, "ERP Rollout", opportunities[0].OpportunityName)
	assert.Equal(t, float64(125000), opportunities[0].Amount)
	assert.Equal(t, uint(7), opportunities[0].UserID)
	assert.Equal(t, domain.StageLevel1RFB, opportunities[1].ApprovalStage)
}

func TestImportService_Templates(t *testing.T) {
	svc := createImportService(testutil.SetupTestDB(t))

	assert.True(t, strings.HasPrefix(svc.ClientTemplate(), "client_name,"))
	assert.True(t, strings.HasPrefix(svc.OpportunityTemplate(), "opportunity_name,"))

	// Templates must round-trip through the importer
	db := testutil.SetupTestDB(t)
	fresh := createImportService(db)
	result, err := fresh.ImportClients(context.Background(), 1, strings.NewReader(fresh.ClientTemplate()))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)

	result, err = fresh.ImportOpportunities(context.Background(), 1, strings.NewReader(fresh.OpportunityTemplate()))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
}
