package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/presaleshub/crm-api/internal/domain"
	"github.com/presaleshub/crm-api/internal/http/handler"
	"github.com/presaleshub/crm-api/internal/repository"
	"github.com/presaleshub/crm-api/internal/service"
	"github.com/presaleshub/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func createSOWHandler(db *gorm.DB) *handler.SOWHandler {
	svc := service.NewSOWService(
		db,
		repository.NewSOWRepository(db),
		repository.NewOpportunityRepository(db),
		nil,
		zap.NewNop(),
	)
	return handler.NewSOWHandler(svc, 10, 5, zap.NewNop())
}

func TestSOWHandler_List_FiltersByCreator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createSOWHandler(db)

	require.NoError(t, db.Create(&domain.SOW{
		SOWTitle: "Rollout Phase 1", OpportunityID: 1, RFBID: 1, UserID: 7,
	}).Error)
	require.NoError(t, db.Create(&domain.SOW{
		SOWTitle: "Rollout Phase 2", OpportunityID: 1, RFBID: 1, UserID: 7,
	}).Error)
	require.NoError(t, db.Create(&domain.SOW{
		SOWTitle: "Side Project", OpportunityID: 2, RFBID: 2, UserID: 9,
	}).Error)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sows?user_id=7", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data       []domain.SOW      `json:"data"`
		Pagination domain.Pagination `json:"pagination"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, int64(2), resp.Pagination.Total)
	for _, sow := range resp.Data {
		assert.Equal(t, uint(7), sow.UserID)
	}
}
