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

func createDashboardService(db *gorm.DB) *service.DashboardService {
	return service.NewDashboardService(
		repository.NewClientRepository(db),
		repository.NewOpportunityRepository(db),
		repository.NewRFPRepository(db),
		repository.NewSOWRepository(db),
		zap.NewNop(),
	)
}

func TestDashboardService_Stats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createDashboardService(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&domain.Client{ClientName: "Acme", UserID: 1}).Error)
	require.NoError(t, db.Create(&domain.Opportunity{
		OpportunityName: "A", ApprovalStage: domain.StageLevel1RFB,
		Amount: 100, Currency: "USD", LeadSource: "Referral", UserID: 1,
	}).Error)
	require.NoError(t, db.Create(&domain.Opportunity{
		OpportunityName: "B", ApprovalStage: domain.StageLevel2SOW,
		Amount: 200, Currency: "USD", LeadSource: "Referral", UserID: 1,
	}).Error)
	require.NoError(t, db.Create(&domain.Opportunity{
		OpportunityName: "C", ApprovalStage: domain.StageLevel2SOW,
		Amount: 50, Currency: "EUR", LeadSource: "Web", UserID: 1,
	}).Error)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.TotalClients)
	assert.Equal(t, int64(3), stats.TotalOpportunities)
	assert.Equal(t, int64(0), stats.TotalRFPs)

	funnel := map[domain.ApprovalStage]int64{}
	for _, bucket := range stats.ConversionFunnel {
		funnel[bucket.Stage] = bucket.Count
	}
	assert.Equal(t, int64(1), funnel[domain.StageLevel1RFB])
	assert.Equal(t, int64(2), funnel[domain.StageLevel2SOW])

	sources := map[string]int64{}
	for _, bucket := range stats.SourceDistribution {
		sources[bucket.Source] = bucket.Count
	}
	assert.Equal(t, int64(2), sources["Referral"])
	assert.Equal(t, int64(1), sources["Web"])

	assert.Equal(t, float64(300), stats.PipelineValue["USD"])
	assert.Equal(t, float64(50), stats.PipelineValue["EUR"])
}

func TestDashboardService_SalesPerformance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createDashboardService(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&domain.User{
		FullName: "Jane Smith", Email: "jane@example.com",
		PasswordHash: "x", Status: domain.UserStatusActive,
	}).Error)

	require.NoError(t, db.Create(&domain.Opportunity{
		OpportunityName: "Won Deal", Amount: 100,
		PipelineStatus: "Won", UserID: 1,
	}).Error)
	require.NoError(t, db.Create(&domain.Opportunity{
		OpportunityName: "Open Deal", Amount: 300,
		PipelineStatus: "Open", UserID: 1,
	}).Error)

	rows, err := svc.SalesPerformance(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "Jane Smith", rows[0].FullName)
	assert.Equal(t, int64(2), rows[0].Opportunities)
	assert.Equal(t, float64(400), rows[0].PipelineValue)
	assert.Equal(t, int64(1), rows[0].Won)
	assert.InDelta(t, 50.0, rows[0].WinRate, 0.01)
}
