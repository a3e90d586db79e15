package ledger

import (
	"context"
	"testing"
	"time"

	"billpay/internal/models"
	"billpay/internal/repositories"
	"billpay/internal/services/hierarchy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEventRepo struct {
	mock.Mock
}

func (m *MockEventRepo) Create(event *models.TransactionEvent) error {
	return m.Called(event).Error(0)
}

func (m *MockEventRepo) GetByID(id uuid.UUID) (*models.TransactionEvent, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TransactionEvent), args.Error(1)
}

func (m *MockEventRepo) ListByTransaction(transactionID uuid.UUID) ([]models.TransactionEvent, error) {
	args := m.Called(transactionID)
	return args.Get(0).([]models.TransactionEvent), args.Error(1)
}

func (m *MockEventRepo) NextSequence(transactionID uuid.UUID) (int, error) {
	args := m.Called(transactionID)
	return args.Int(0), args.Error(1)
}

type MockMerchantRepo struct {
	mock.Mock
}

func (m *MockMerchantRepo) GetByID(id uuid.UUID) (*models.Merchant, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Merchant), args.Error(1)
}

func (m *MockMerchantRepo) GetByIDs(ids []uuid.UUID) ([]models.Merchant, error) {
	args := m.Called(ids)
	return args.Get(0).([]models.Merchant), args.Error(1)
}

func (m *MockMerchantRepo) Create(merchant *models.Merchant) error {
	return m.Called(merchant).Error(0)
}

func (m *MockMerchantRepo) Move(merchant *models.Merchant, history *models.MerchantOrgHistory) error {
	return m.Called(merchant, history).Error(0)
}

func (m *MockMerchantRepo) OrgHistory(merchantID uuid.UUID) ([]models.MerchantOrgHistory, error) {
	args := m.Called(merchantID)
	return args.Get(0).([]models.MerchantOrgHistory), args.Error(1)
}

type MockHierarchy struct {
	mock.Mock
}

func (m *MockHierarchy) ResolveAncestors(ctx context.Context, merchantID uuid.UUID, atTime time.Time) ([]hierarchy.AncestorRef, error) {
	args := m.Called(ctx, merchantID, atTime)
	return args.Get(0).([]hierarchy.AncestorRef), args.Error(1)
}

func (m *MockHierarchy) OrgPathAt(ctx context.Context, merchantID uuid.UUID, atTime time.Time) (string, error) {
	args := m.Called(ctx, merchantID, atTime)
	return args.String(0), args.Error(1)
}

func (m *MockHierarchy) MoveMerchant(ctx context.Context, merchantID uuid.UUID, req hierarchy.MoveRequest) (*models.Merchant, error) {
	args := m.Called(ctx, merchantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Merchant), args.Error(1)
}

type MockSettler struct {
	mock.Mock
}

func (m *MockSettler) Settle(ctx context.Context, event *models.TransactionEvent) ([]models.SettlementEntry, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SettlementEntry), args.Error(1)
}

type ledgerMocks struct {
	events    *MockEventRepo
	merchants *MockMerchantRepo
	hierarchy *MockHierarchy
	settler   *MockSettler
}

func newTestService(t *testing.T) (Service, ledgerMocks) {
	t.Helper()
	m := ledgerMocks{
		events:    new(MockEventRepo),
		merchants: new(MockMerchantRepo),
		hierarchy: new(MockHierarchy),
		settler:   new(MockSettler),
	}
	return NewService(m.events, m.merchants, m.hierarchy, m.settler), m
}

func approvalRequest(merchantID uuid.UUID) IngestRequest {
	return IngestRequest{
		TransactionID:   uuid.New(),
		EventType:       string(models.EventTypeApproval),
		MerchantID:      merchantID,
		PaymentMethodID: uuid.New(),
		Amount:          "10000",
		OccurredAt:      time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestIngestRejectsBadInput(t *testing.T) {
	svc, m := newTestService(t)
	merchantID := uuid.New()

	t.Run("non numeric amount", func(t *testing.T) {
		req := approvalRequest(merchantID)
		req.Amount = "abc"
		_, err := svc.Ingest(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("non positive amount", func(t *testing.T) {
		req := approvalRequest(merchantID)
		req.Amount = "-100"
		_, err := svc.Ingest(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("unknown event type", func(t *testing.T) {
		req := approvalRequest(merchantID)
		req.EventType = "REFUND"
		_, err := svc.Ingest(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidEventType)
	})

	t.Run("unknown merchant", func(t *testing.T) {
		m.merchants.On("GetByID", merchantID).Return(nil, repositories.ErrMerchantNotFound).Once()
		_, err := svc.Ingest(context.Background(), approvalRequest(merchantID))
		assert.ErrorIs(t, err, ErrMerchantNotFound)
	})
}

func TestIngestApproval(t *testing.T) {
	svc, m := newTestService(t)
	merchantID := uuid.New()
	req := approvalRequest(merchantID)

	m.merchants.On("GetByID", merchantID).Return(&models.Merchant{ID: merchantID}, nil)
	m.hierarchy.On("OrgPathAt", mock.Anything, merchantID, req.OccurredAt).
		Return("master.dist_001.agcy_001", nil)
	m.events.On("NextSequence", req.TransactionID).Return(1, nil)
	m.events.On("Create", mock.MatchedBy(func(e *models.TransactionEvent) bool {
		return e.MerchantPath == "master.dist_001.agcy_001" &&
			e.Currency == "KRW" &&
			e.EventSequence == 1 &&
			e.OriginalEventID == nil
	})).Return(nil)
	m.settler.On("Settle", mock.Anything, mock.Anything).
		Return([]models.SettlementEntry{{ID: uuid.New()}}, nil)

	res, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.EventTypeApproval, res.Event.EventType)
	assert.True(t, res.Event.Amount.Equal(decimal.RequireFromString("10000")))
	assert.Len(t, res.Entries, 1)

	m.events.AssertExpectations(t)
	m.settler.AssertExpectations(t)
}

func TestIngestCancellationLinksApproval(t *testing.T) {
	svc, m := newTestService(t)
	merchantID := uuid.New()
	req := approvalRequest(merchantID)
	req.EventType = string(models.EventTypeCancellation)
	req.Amount = "10000"

	approval := models.TransactionEvent{
		ID:            uuid.New(),
		TransactionID: req.TransactionID,
		EventType:     models.EventTypeApproval,
		Amount:        decimal.RequireFromString("10000"),
	}

	m.merchants.On("GetByID", merchantID).Return(&models.Merchant{ID: merchantID}, nil)
	m.hierarchy.On("OrgPathAt", mock.Anything, merchantID, req.OccurredAt).
		Return("master.dist_001.agcy_001", nil)
	m.events.On("ListByTransaction", req.TransactionID).
		Return([]models.TransactionEvent{approval}, nil)
	m.events.On("NextSequence", req.TransactionID).Return(2, nil)
	m.events.On("Create", mock.MatchedBy(func(e *models.TransactionEvent) bool {
		return e.OriginalEventID != nil && *e.OriginalEventID == approval.ID
	})).Return(nil)
	m.settler.On("Settle", mock.Anything, mock.Anything).
		Return([]models.SettlementEntry{}, nil)

	_, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)
	m.events.AssertExpectations(t)
}

func TestIngestCancellationGuards(t *testing.T) {
	t.Run("exceeds original", func(t *testing.T) {
		svc, m := newTestService(t)
		merchantID := uuid.New()
		req := approvalRequest(merchantID)
		req.EventType = string(models.EventTypePartialCancel)
		req.Amount = "10001"

		m.merchants.On("GetByID", merchantID).Return(&models.Merchant{ID: merchantID}, nil)
		m.hierarchy.On("OrgPathAt", mock.Anything, merchantID, req.OccurredAt).
			Return("master.dist_001.agcy_001", nil)
		m.events.On("ListByTransaction", req.TransactionID).
			Return([]models.TransactionEvent{{
				ID:        uuid.New(),
				EventType: models.EventTypeApproval,
				Amount:    decimal.RequireFromString("10000"),
			}}, nil)

		_, err := svc.Ingest(context.Background(), req)
		assert.ErrorIs(t, err, ErrCancelExceedsOriginal)
	})

	t.Run("no approval on transaction", func(t *testing.T) {
		svc, m := newTestService(t)
		merchantID := uuid.New()
		req := approvalRequest(merchantID)
		req.EventType = string(models.EventTypeCancellation)

		m.merchants.On("GetByID", merchantID).Return(&models.Merchant{ID: merchantID}, nil)
		m.hierarchy.On("OrgPathAt", mock.Anything, merchantID, req.OccurredAt).
			Return("master.dist_001.agcy_001", nil)
		m.events.On("ListByTransaction", req.TransactionID).
			Return([]models.TransactionEvent{}, nil)

		_, err := svc.Ingest(context.Background(), req)
		assert.ErrorIs(t, err, ErrApprovalNotFound)
	})
}

func TestIngestKeepsEventWhenSettlementFails(t *testing.T) {
	svc, m := newTestService(t)
	merchantID := uuid.New()
	req := approvalRequest(merchantID)
	boom := assert.AnError

	m.merchants.On("GetByID", merchantID).Return(&models.Merchant{ID: merchantID}, nil)
	m.hierarchy.On("OrgPathAt", mock.Anything, merchantID, req.OccurredAt).
		Return("master.dist_001.agcy_001", nil)
	m.events.On("NextSequence", req.TransactionID).Return(1, nil)
	m.events.On("Create", mock.Anything).Return(nil)
	m.settler.On("Settle", mock.Anything, mock.Anything).Return(nil, boom)

	res, err := svc.Ingest(context.Background(), req)
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, res)
	assert.NotNil(t, res.Event)
	assert.Empty(t, res.Entries)
}

func TestGetByID(t *testing.T) {
	svc, m := newTestService(t)
	id := uuid.New()

	m.events.On("GetByID", id).Return(nil, repositories.ErrEventNotFound)
	_, err := svc.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrEventNotFound)
}
