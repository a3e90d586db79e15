package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"billpay/internal/models"
	"billpay/internal/repositories"
	"billpay/internal/services/batch"
	"billpay/internal/services/report"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type MockBatchService struct {
	mock.Mock
}

func (m *MockBatchService) Register(ctx context.Context, tx *gorm.DB, date time.Time, delta batch.Delta) (*models.SettlementBatch, error) {
	args := m.Called(ctx, tx, date, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementBatch), args.Error(1)
}

func (m *MockBatchService) Reverse(ctx context.Context, tx *gorm.DB, date time.Time, delta batch.Delta) error {
	return m.Called(ctx, tx, date, delta).Error(0)
}

func (m *MockBatchService) CloseDate(ctx context.Context, date time.Time) (*models.SettlementBatch, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementBatch), args.Error(1)
}

func (m *MockBatchService) Approve(ctx context.Context, id uuid.UUID) (*models.SettlementBatch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementBatch), args.Error(1)
}

func (m *MockBatchService) Fail(ctx context.Context, id uuid.UUID) (*models.SettlementBatch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementBatch), args.Error(1)
}

func (m *MockBatchService) GetByID(ctx context.Context, id uuid.UUID) (*models.SettlementBatch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementBatch), args.Error(1)
}

func (m *MockBatchService) GetByDate(ctx context.Context, date time.Time) (*models.SettlementBatch, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementBatch), args.Error(1)
}

func (m *MockBatchService) EntriesByDate(ctx context.Context, date time.Time) ([]models.SettlementEntry, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SettlementEntry), args.Error(1)
}

func (m *MockBatchService) List(ctx context.Context, q repositories.BatchQuery) ([]models.SettlementBatch, int64, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]models.SettlementBatch), args.Get(1).(int64), args.Error(2)
}

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Summary(ctx context.Context, r report.Range, entityType string) (*report.Summary, error) {
	args := m.Called(ctx, r, entityType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Summary), args.Error(1)
}

func (m *MockReportService) ByOrganization(ctx context.Context, r report.Range, orgType models.OrganizationType, search string) ([]report.OrgSummary, error) {
	args := m.Called(ctx, r, orgType, search)
	return args.Get(0).([]report.OrgSummary), args.Error(1)
}

func (m *MockReportService) OrganizationDetail(ctx context.Context, orgID uuid.UUID, r report.Range) (*report.OrgDetail, error) {
	args := m.Called(ctx, orgID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.OrgDetail), args.Error(1)
}

func (m *MockReportService) MerchantDaily(ctx context.Context, r report.Range) ([]report.DailyRow, error) {
	args := m.Called(ctx, r)
	return args.Get(0).([]report.DailyRow), args.Error(1)
}

func (m *MockReportService) MerchantDailyDetail(ctx context.Context, date time.Time) (*report.DailyDetail, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.DailyDetail), args.Error(1)
}

func (m *MockReportService) MerchantStatement(ctx context.Context, merchantID uuid.UUID, r report.Range) (*report.MerchantStatement, error) {
	args := m.Called(ctx, merchantID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.MerchantStatement), args.Error(1)
}

func (m *MockReportService) OrgDaily(ctx context.Context, r report.Range) ([]report.OrgDailyRow, error) {
	args := m.Called(ctx, r)
	return args.Get(0).([]report.OrgDailyRow), args.Error(1)
}

func (m *MockReportService) OrgDailyDetail(ctx context.Context, date time.Time) (*report.OrgDailyDetail, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.OrgDailyDetail), args.Error(1)
}

func (m *MockReportService) OrgStatement(ctx context.Context, orgID uuid.UUID, r report.Range) (*report.OrgStatement, error) {
	args := m.Called(ctx, orgID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.OrgStatement), args.Error(1)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, body io.Reader) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	return env
}

func TestBatchByDateServesEntryList(t *testing.T) {
	batches := new(MockBatchService)
	reports := new(MockReportService)
	h := NewSettlementHandler(nil, batches, reports)

	entries := []models.SettlementEntry{
		{ID: uuid.New(), Amount: decimal.RequireFromString("10000")},
		{ID: uuid.New(), Amount: decimal.RequireFromString("9800")},
	}
	batches.On("EntriesByDate", mock.Anything, mock.MatchedBy(func(d time.Time) bool {
		return d.Format("2006-01-02") == "2026-03-15"
	})).Return(entries, nil)

	app := fiber.New()
	app.Get("/settlements/batch/:date", h.BatchByDate)

	resp, err := app.Test(httptest.NewRequest("GET", "/settlements/batch/2026-03-15", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp.Body)
	assert.True(t, env.Success)
	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &got), "batch/:date must serve an entry list")
	assert.Len(t, got, 2)

	batches.AssertExpectations(t)
}

func TestSummaryScopesAndSplitsVolume(t *testing.T) {
	batches := new(MockBatchService)
	reports := new(MockReportService)
	h := NewSettlementHandler(nil, batches, reports)

	reports.On("Summary", mock.Anything, mock.Anything, "AGENCY").
		Return(&report.Summary{
			TotalAmount:  decimal.RequireFromString("7500"),
			CreditAmount: decimal.RequireFromString("10000"),
			DebitAmount:  decimal.RequireFromString("-2500"),
		}, nil)

	app := fiber.New()
	app.Get("/settlements/summary", h.Summary)

	resp, err := app.Test(httptest.NewRequest("GET", "/settlements/summary?entityType=AGENCY", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp.Body)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Contains(t, got, "creditAmount")
	assert.Contains(t, got, "debitAmount")

	reports.AssertExpectations(t)
}
