package batch

import (
	"context"
	"testing"
	"time"

	"billpay/internal/models"
	"billpay/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type MockBatchRepo struct {
	mock.Mock
}

func (m *MockBatchRepo) WithTx(tx *gorm.DB) repositories.BatchRepository { return m }

func (m *MockBatchRepo) GetByID(id uuid.UUID) (*models.SettlementBatch, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementBatch), args.Error(1)
}

func (m *MockBatchRepo) GetByDate(date time.Time) (*models.SettlementBatch, error) {
	args := m.Called(date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementBatch), args.Error(1)
}

func (m *MockBatchRepo) Create(batch *models.SettlementBatch) error {
	return m.Called(batch).Error(0)
}

func (m *MockBatchRepo) CountByDate(date time.Time) (int64, error) {
	args := m.Called(date)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBatchRepo) List(q repositories.BatchQuery) ([]models.SettlementBatch, int64, error) {
	args := m.Called(q)
	return args.Get(0).([]models.SettlementBatch), args.Get(1).(int64), args.Error(2)
}

func (m *MockBatchRepo) Save(batch *models.SettlementBatch) error {
	return m.Called(batch).Error(0)
}

func (m *MockBatchRepo) ApplyDelta(id uuid.UUID, version int, dTransactions int, dAmount, dFee decimal.Decimal) error {
	return m.Called(id, version, dTransactions, dAmount, dFee).Error(0)
}

func (m *MockBatchRepo) TransitionStatus(id uuid.UUID, from, to models.BatchStatus) (bool, error) {
	args := m.Called(id, from, to)
	return args.Bool(0), args.Error(1)
}

type MockEntryRepo struct {
	mock.Mock
}

func (m *MockEntryRepo) WithTx(tx *gorm.DB) repositories.SettlementEntryRepository { return m }

func (m *MockEntryRepo) CreateAll(entries []models.SettlementEntry) error {
	return m.Called(entries).Error(0)
}

func (m *MockEntryRepo) FindByEventID(eventID uuid.UUID) ([]models.SettlementEntry, error) {
	args := m.Called(eventID)
	return args.Get(0).([]models.SettlementEntry), args.Error(1)
}

func (m *MockEntryRepo) FindLiveByEventID(eventID uuid.UUID) ([]models.SettlementEntry, error) {
	args := m.Called(eventID)
	return args.Get(0).([]models.SettlementEntry), args.Error(1)
}

func (m *MockEntryRepo) VoidByEventID(eventID uuid.UUID) (int64, error) {
	args := m.Called(eventID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEntryRepo) Query(q repositories.SettlementQuery) ([]models.SettlementEntry, int64, error) {
	args := m.Called(q)
	return args.Get(0).([]models.SettlementEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockEntryRepo) FindInRange(start, end time.Time, pathPrefix string) ([]models.SettlementEntry, error) {
	args := m.Called(start, end, pathPrefix)
	return args.Get(0).([]models.SettlementEntry), args.Error(1)
}

func (m *MockEntryRepo) FindByBatchID(batchID uuid.UUID) ([]models.SettlementEntry, error) {
	args := m.Called(batchID)
	return args.Get(0).([]models.SettlementEntry), args.Error(1)
}

func (m *MockEntryRepo) FindUnbatchedInRange(start, end time.Time) ([]models.SettlementEntry, error) {
	args := m.Called(start, end)
	return args.Get(0).([]models.SettlementEntry), args.Error(1)
}

func (m *MockEntryRepo) AssignBatch(entryIDs []uuid.UUID, batchID uuid.UUID) error {
	return m.Called(entryIDs, batchID).Error(0)
}

func (m *MockEntryRepo) MarkSettledByBatch(batchID uuid.UUID, at time.Time) (int64, error) {
	args := m.Called(batchID, at)
	return args.Get(0).(int64), args.Error(1)
}

func testDelta() Delta {
	return Delta{
		Transactions: 1,
		Amount:       decimal.RequireFromString("10000"),
		Fee:          decimal.RequireFromString("200"),
	}
}

func TestRegisterCreatesBatch(t *testing.T) {
	batches := new(MockBatchRepo)
	entries := new(MockEntryRepo)
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	batches.On("GetByDate", date).Return(nil, repositories.ErrBatchNotFound).Once()
	batches.On("CountByDate", date).Return(int64(0), nil)
	batches.On("Create", mock.MatchedBy(func(b *models.SettlementBatch) bool {
		return b.BatchNumber == "BATCH-20260315-001" && b.Status == models.BatchStatusPending
	})).Return(nil)
	batches.On("TransitionStatus", mock.Anything, models.BatchStatusPending, models.BatchStatusProcessing).
		Return(true, nil)
	batches.On("ApplyDelta", mock.Anything, 0, 1, mock.Anything, mock.Anything).Return(nil)

	svc := NewService(batches, entries)
	b, err := svc.Register(context.Background(), nil, date, testDelta())
	require.NoError(t, err)
	assert.Equal(t, "BATCH-20260315-001", b.BatchNumber)
	assert.Equal(t, models.BatchStatusProcessing, b.Status)

	batches.AssertExpectations(t)
}

func TestRegisterRetriesOnVersionConflict(t *testing.T) {
	batches := new(MockBatchRepo)
	entries := new(MockEntryRepo)
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	existing := &models.SettlementBatch{
		ID:      uuid.New(),
		Status:  models.BatchStatusProcessing,
		Version: 3,
	}

	batches.On("GetByDate", date).Return(existing, nil)
	batches.On("ApplyDelta", existing.ID, 3, 1, mock.Anything, mock.Anything).
		Return(repositories.ErrVersionConflict).Once()
	batches.On("GetByID", existing.ID).
		Return(&models.SettlementBatch{ID: existing.ID, Status: models.BatchStatusProcessing, Version: 4}, nil)
	batches.On("ApplyDelta", existing.ID, 4, 1, mock.Anything, mock.Anything).Return(nil).Once()

	svc := NewService(batches, entries)
	_, err := svc.Register(context.Background(), nil, date, testDelta())
	require.NoError(t, err)

	batches.AssertExpectations(t)
}

func TestRegisterGivesUpAfterRetryBudget(t *testing.T) {
	batches := new(MockBatchRepo)
	entries := new(MockEntryRepo)
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	existing := &models.SettlementBatch{ID: uuid.New(), Status: models.BatchStatusProcessing, Version: 1}

	batches.On("GetByDate", date).Return(existing, nil)
	batches.On("ApplyDelta", existing.ID, mock.Anything, 1, mock.Anything, mock.Anything).
		Return(repositories.ErrVersionConflict)
	batches.On("GetByID", existing.ID).Return(existing, nil)

	svc := NewService(batches, entries)
	_, err := svc.Register(context.Background(), nil, date, testDelta())
	assert.ErrorIs(t, err, ErrCounterContention)
}

func TestReverseRequiresExistingBatch(t *testing.T) {
	batches := new(MockBatchRepo)
	entries := new(MockEntryRepo)
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	batches.On("GetByDate", date).Return(nil, repositories.ErrBatchNotFound)

	svc := NewService(batches, entries)
	err := svc.Reverse(context.Background(), nil, date, testDelta())
	assert.ErrorIs(t, err, ErrBatchNotFound)
}

func TestDeltaNeg(t *testing.T) {
	d := testDelta().Neg()
	assert.Equal(t, -1, d.Transactions)
	assert.True(t, d.Amount.Equal(decimal.RequireFromString("-10000")))
	assert.True(t, d.Fee.Equal(decimal.RequireFromString("-200")))
}

func TestApproveTransitions(t *testing.T) {
	t.Run("requires completed", func(t *testing.T) {
		batches := new(MockBatchRepo)
		b := &models.SettlementBatch{ID: uuid.New(), Status: models.BatchStatusProcessing}
		batches.On("GetByID", b.ID).Return(b, nil)

		svc := NewService(batches, new(MockEntryRepo))
		_, err := svc.Approve(context.Background(), b.ID)
		assert.ErrorIs(t, err, ErrBatchNotCompleted)
	})

	t.Run("rejects double approval", func(t *testing.T) {
		batches := new(MockBatchRepo)
		now := time.Now()
		b := &models.SettlementBatch{ID: uuid.New(), Status: models.BatchStatusCompleted, ApprovedAt: &now}
		batches.On("GetByID", b.ID).Return(b, nil)

		svc := NewService(batches, new(MockEntryRepo))
		_, err := svc.Approve(context.Background(), b.ID)
		assert.ErrorIs(t, err, ErrAlreadyApproved)
	})

	t.Run("stamps approval time", func(t *testing.T) {
		batches := new(MockBatchRepo)
		b := &models.SettlementBatch{ID: uuid.New(), Status: models.BatchStatusCompleted}
		batches.On("GetByID", b.ID).Return(b, nil)
		batches.On("Save", mock.MatchedBy(func(saved *models.SettlementBatch) bool {
			return saved.ApprovedAt != nil
		})).Return(nil)

		svc := NewService(batches, new(MockEntryRepo))
		approved, err := svc.Approve(context.Background(), b.ID)
		require.NoError(t, err)
		assert.NotNil(t, approved.ApprovedAt)
	})
}

func TestCloseDate(t *testing.T) {
	batches := new(MockBatchRepo)
	entries := new(MockEntryRepo)
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	b := &models.SettlementBatch{ID: uuid.New(), Status: models.BatchStatusProcessing}
	orphan := models.SettlementEntry{ID: uuid.New()}

	batches.On("GetByDate", date).Return(b, nil)
	entries.On("FindUnbatchedInRange", mock.Anything, mock.Anything).
		Return([]models.SettlementEntry{orphan}, nil)
	entries.On("AssignBatch", []uuid.UUID{orphan.ID}, b.ID).Return(nil)
	entries.On("MarkSettledByBatch", b.ID, mock.Anything).Return(int64(5), nil)
	batches.On("TransitionStatus", b.ID, models.BatchStatusProcessing, models.BatchStatusCompleted).
		Return(true, nil)
	batches.On("GetByID", b.ID).
		Return(&models.SettlementBatch{ID: b.ID, Status: models.BatchStatusCompleted}, nil)
	batches.On("Save", mock.MatchedBy(func(saved *models.SettlementBatch) bool {
		return saved.ProcessedAt != nil
	})).Return(nil)

	svc := NewService(batches, entries)
	closed, err := svc.CloseDate(context.Background(), date)
	require.NoError(t, err)
	assert.Equal(t, models.BatchStatusCompleted, closed.Status)
	assert.NotNil(t, closed.ProcessedAt)

	batches.AssertExpectations(t)
	entries.AssertExpectations(t)
}

func TestEntriesByDate(t *testing.T) {
	batches := new(MockBatchRepo)
	entries := new(MockEntryRepo)
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	b := &models.SettlementBatch{ID: uuid.New(), Status: models.BatchStatusProcessing}
	attached := []models.SettlementEntry{{ID: uuid.New()}, {ID: uuid.New()}}

	batches.On("GetByDate", date).Return(b, nil)
	entries.On("FindByBatchID", b.ID).Return(attached, nil)

	svc := NewService(batches, entries)
	got, err := svc.EntriesByDate(context.Background(), date)
	require.NoError(t, err)
	assert.Equal(t, attached, got)

	t.Run("unknown date", func(t *testing.T) {
		batches.On("GetByDate", mock.Anything).Return(nil, repositories.ErrBatchNotFound)
		_, err := svc.EntriesByDate(context.Background(), date.AddDate(0, 0, 1))
		assert.ErrorIs(t, err, ErrBatchNotFound)
	})
}

func TestFail(t *testing.T) {
	t.Run("fails an open batch", func(t *testing.T) {
		batches := new(MockBatchRepo)
		b := &models.SettlementBatch{ID: uuid.New(), Status: models.BatchStatusProcessing}
		batches.On("GetByID", b.ID).Return(b, nil).Once()
		batches.On("TransitionStatus", b.ID, models.BatchStatusProcessing, models.BatchStatusFailed).
			Return(true, nil)
		batches.On("GetByID", b.ID).
			Return(&models.SettlementBatch{ID: b.ID, Status: models.BatchStatusFailed}, nil)

		svc := NewService(batches, new(MockEntryRepo))
		failed, err := svc.Fail(context.Background(), b.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BatchStatusFailed, failed.Status)
	})

	t.Run("rejects a completed batch", func(t *testing.T) {
		batches := new(MockBatchRepo)
		b := &models.SettlementBatch{ID: uuid.New(), Status: models.BatchStatusCompleted}
		batches.On("GetByID", b.ID).Return(b, nil)

		svc := NewService(batches, new(MockEntryRepo))
		_, err := svc.Fail(context.Background(), b.ID)
		assert.ErrorIs(t, err, ErrBatchNotProcessing)
	})
}
