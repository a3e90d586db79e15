// Package batch groups settlement entries by settlement date and keeps
// per-batch running counters consistent under concurrent settlements.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"billpay/internal/models"
	"billpay/internal/repositories"
	"billpay/internal/utils/dateutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Delta is one event's contribution to a batch's counters. Amount and Fee
// carry the event's sign: reversals subtract.
type Delta struct {
	Transactions int
	Amount       decimal.Decimal
	Fee          decimal.Decimal
}

// Neg returns the delta that undoes this one.
func (d Delta) Neg() Delta {
	return Delta{
		Transactions: -d.Transactions,
		Amount:       d.Amount.Neg(),
		Fee:          d.Fee.Neg(),
	}
}

const maxDeltaRetries = 5

// Service owns batch lifecycle and counters.
type Service interface {
	// Register finds or creates the batch for the settlement date and adds
	// the delta to its counters inside the caller's transaction. The first
	// registration moves a PENDING batch to PROCESSING.
	Register(ctx context.Context, tx *gorm.DB, date time.Time, delta Delta) (*models.SettlementBatch, error)
	// Reverse subtracts a previously registered delta, for re-settlement.
	Reverse(ctx context.Context, tx *gorm.DB, date time.Time, delta Delta) error

	// CloseDate completes the date's batch: sweeps any entries that missed
	// assignment, marks PENDING entries SETTLED and transitions the batch
	// to COMPLETED.
	CloseDate(ctx context.Context, date time.Time) (*models.SettlementBatch, error)
	// Approve records operator sign-off on a COMPLETED batch.
	Approve(ctx context.Context, id uuid.UUID) (*models.SettlementBatch, error)
	Fail(ctx context.Context, id uuid.UUID) (*models.SettlementBatch, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.SettlementBatch, error)
	GetByDate(ctx context.Context, date time.Time) (*models.SettlementBatch, error)
	// EntriesByDate returns the settlement entries attached to the date's
	// batch.
	EntriesByDate(ctx context.Context, date time.Time) ([]models.SettlementEntry, error)
	List(ctx context.Context, q repositories.BatchQuery) ([]models.SettlementBatch, int64, error)
}

type service struct {
	batches repositories.BatchRepository
	entries repositories.SettlementEntryRepository
}

// NewService creates a new batch service.
func NewService(batches repositories.BatchRepository, entries repositories.SettlementEntryRepository) Service {
	if batches == nil {
		panic("batch repository is required")
	}
	if entries == nil {
		panic("settlement entry repository is required")
	}
	return &service{batches: batches, entries: entries}
}

func (s *service) Register(ctx context.Context, tx *gorm.DB, date time.Time, delta Delta) (*models.SettlementBatch, error) {
	repo := s.batches.WithTx(tx)

	batch, err := s.ensureBatch(repo, date)
	if err != nil {
		return nil, err
	}

	if batch.Status == models.BatchStatusPending {
		if _, err := repo.TransitionStatus(batch.ID, models.BatchStatusPending, models.BatchStatusProcessing); err != nil {
			return nil, fmt.Errorf("failed to start batch %s: %w", batch.BatchNumber, err)
		}
		batch.Status = models.BatchStatusProcessing
	}

	if err := s.applyWithRetry(repo, batch, delta); err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *service) Reverse(ctx context.Context, tx *gorm.DB, date time.Time, delta Delta) error {
	repo := s.batches.WithTx(tx)
	batch, err := repo.GetByDate(date)
	if err != nil {
		if errors.Is(err, repositories.ErrBatchNotFound) {
			return ErrBatchNotFound
		}
		return err
	}
	return s.applyWithRetry(repo, batch, delta.Neg())
}

// applyWithRetry pushes a counter delta, refreshing the version and
// retrying a bounded number of times when a concurrent settlement won the
// race.
func (s *service) applyWithRetry(repo repositories.BatchRepository, batch *models.SettlementBatch, delta Delta) error {
	version := batch.Version
	for attempt := 0; attempt < maxDeltaRetries; attempt++ {
		err := repo.ApplyDelta(batch.ID, version, delta.Transactions, delta.Amount, delta.Fee)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repositories.ErrVersionConflict) {
			return fmt.Errorf("failed to update batch counters: %w", err)
		}
		fresh, err := repo.GetByID(batch.ID)
		if err != nil {
			return err
		}
		version = fresh.Version
	}
	return ErrCounterContention
}

func (s *service) ensureBatch(repo repositories.BatchRepository, date time.Time) (*models.SettlementBatch, error) {
	batch, err := repo.GetByDate(date)
	if err == nil {
		return batch, nil
	}
	if !errors.Is(err, repositories.ErrBatchNotFound) {
		return nil, err
	}

	seq, err := repo.CountByDate(date)
	if err != nil {
		return nil, err
	}
	batch = &models.SettlementBatch{
		ID:             uuid.New(),
		BatchNumber:    fmt.Sprintf("BATCH-%s-%03d", date.Format("20060102"), seq+1),
		SettlementDate: date,
		Status:         models.BatchStatusPending,
		TotalAmount:    decimal.Zero,
		TotalFeeAmount: decimal.Zero,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := repo.Create(batch); err != nil {
		// A concurrent settlement created it first; the date is unique.
		existing, getErr := repo.GetByDate(date)
		if getErr != nil {
			return nil, err
		}
		return existing, nil
	}
	return batch, nil
}

func (s *service) CloseDate(ctx context.Context, date time.Time) (*models.SettlementBatch, error) {
	batch, err := s.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if batch.Status != models.BatchStatusProcessing {
		return nil, ErrBatchNotProcessing
	}

	start, end := dateutil.DayWindow(date)
	orphans, err := s.entries.FindUnbatchedInRange(start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to sweep unbatched entries: %w", err)
	}
	if len(orphans) > 0 {
		ids := make([]uuid.UUID, len(orphans))
		for i, e := range orphans {
			ids[i] = e.ID
		}
		if err := s.entries.AssignBatch(ids, batch.ID); err != nil {
			return nil, fmt.Errorf("failed to assign swept entries: %w", err)
		}
	}

	now := time.Now()
	if _, err := s.entries.MarkSettledByBatch(batch.ID, now); err != nil {
		return nil, fmt.Errorf("failed to settle batch entries: %w", err)
	}

	moved, err := s.batches.TransitionStatus(batch.ID, models.BatchStatusProcessing, models.BatchStatusCompleted)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, ErrBatchNotProcessing
	}

	batch, err = s.batches.GetByID(batch.ID)
	if err != nil {
		return nil, err
	}
	batch.ProcessedAt = &now
	if err := s.batches.Save(batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *service) Approve(ctx context.Context, id uuid.UUID) (*models.SettlementBatch, error) {
	batch, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if batch.Status != models.BatchStatusCompleted {
		return nil, ErrBatchNotCompleted
	}
	if batch.ApprovedAt != nil {
		return nil, ErrAlreadyApproved
	}
	now := time.Now()
	batch.ApprovedAt = &now
	if err := s.batches.Save(batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *service) Fail(ctx context.Context, id uuid.UUID) (*models.SettlementBatch, error) {
	batch, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch batch.Status {
	case models.BatchStatusPending, models.BatchStatusProcessing:
	default:
		return nil, ErrBatchNotProcessing
	}
	if _, err := s.batches.TransitionStatus(batch.ID, batch.Status, models.BatchStatusFailed); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.SettlementBatch, error) {
	batch, err := s.batches.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrBatchNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}
	return batch, nil
}

func (s *service) GetByDate(ctx context.Context, date time.Time) (*models.SettlementBatch, error) {
	batch, err := s.batches.GetByDate(date)
	if err != nil {
		if errors.Is(err, repositories.ErrBatchNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}
	return batch, nil
}

func (s *service) EntriesByDate(ctx context.Context, date time.Time) ([]models.SettlementEntry, error) {
	batch, err := s.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	return s.entries.FindByBatchID(batch.ID)
}

func (s *service) List(ctx context.Context, q repositories.BatchQuery) ([]models.SettlementBatch, int64, error) {
	return s.batches.List(q)
}
