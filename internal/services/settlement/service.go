// Package settlement computes and persists the fee waterfall for each
// transaction event. An event's entries commit atomically together with the
// batch counter update; concurrent settlement of the same event is
// serialized through a distributed lock.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log"

	"billpay/internal/models"
	"billpay/internal/repositories"
	"billpay/internal/repositories/cache"
	"billpay/internal/services/batch"
	"billpay/internal/services/feeconfig"
	"billpay/internal/services/hierarchy"
	"billpay/internal/utils/dateutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FeeMissing selects what the engine does when an entity in the chain has
// no fee configuration.
const (
	FeeMissingFail = "fail"
	FeeMissingZero = "zero"
)

// Service is the settlement engine.
type Service interface {
	// Settle computes and persists the entries for an event. Calling it
	// again for an already settled event returns the existing live entries.
	Settle(ctx context.Context, event *models.TransactionEvent) ([]models.SettlementEntry, error)
	// Resettle voids the event's live entries, reverses their batch
	// contribution and settles the event again under current fee configs.
	Resettle(ctx context.Context, eventID uuid.UUID) ([]models.SettlementEntry, error)
	EntriesByEvent(ctx context.Context, eventID uuid.UUID) ([]models.SettlementEntry, error)
	Query(ctx context.Context, q repositories.SettlementQuery) ([]models.SettlementEntry, int64, error)
}

type service struct {
	db         *gorm.DB
	entries    repositories.SettlementEntryRepository
	events     repositories.TransactionEventRepository
	batches    batch.Service
	hierarchy  hierarchy.Service
	fees       feeconfig.Service
	locks      *cache.LockManager
	policy     Policy
	feeMissing string
}

// NewService creates the settlement engine.
func NewService(
	db *gorm.DB,
	entries repositories.SettlementEntryRepository,
	events repositories.TransactionEventRepository,
	batches batch.Service,
	hierarchySvc hierarchy.Service,
	fees feeconfig.Service,
	locks *cache.LockManager,
	policy Policy,
	feeMissing string,
) Service {
	if db == nil {
		panic("db is required")
	}
	if entries == nil {
		panic("settlement entry repository is required")
	}
	if events == nil {
		panic("event repository is required")
	}
	if batches == nil {
		panic("batch service is required")
	}
	if hierarchySvc == nil {
		panic("hierarchy service is required")
	}
	if fees == nil {
		panic("fee config service is required")
	}
	if locks == nil {
		panic("lock manager is required")
	}
	return &service{
		db:         db,
		entries:    entries,
		events:     events,
		batches:    batches,
		hierarchy:  hierarchySvc,
		fees:       fees,
		locks:      locks,
		policy:     policy,
		feeMissing: feeMissing,
	}
}

func (s *service) Settle(ctx context.Context, event *models.TransactionEvent) ([]models.SettlementEntry, error) {
	lock, err := s.locks.Acquire(ctx, lockKey(event.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock event %s: %w", event.ID, err)
	}
	defer lock.Release(ctx)

	live, err := s.entries.FindLiveByEventID(event.ID)
	if err != nil {
		return nil, err
	}
	if live = counterBearing(live); len(live) > 0 {
		return live, nil
	}

	computed, delta, err := s.compute(ctx, event)
	if err != nil {
		if errors.Is(err, ErrZeroSumViolation) && len(computed) > 0 {
			s.persistFailed(event, computed)
		}
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		b, err := s.batches.Register(ctx, tx, dateutil.SettlementDate(event.OccurredAt), delta)
		if err != nil {
			return err
		}
		for i := range computed {
			computed[i].SettlementBatchID = &b.ID
		}
		return s.entries.WithTx(tx).CreateAll(computed)
	})
	if err != nil {
		return nil, err
	}
	return computed, nil
}

func (s *service) Resettle(ctx context.Context, eventID uuid.UUID) ([]models.SettlementEntry, error) {
	event, err := s.events.GetByID(eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	lock, err := s.locks.Acquire(ctx, lockKey(event.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock event %s: %w", event.ID, err)
	}
	defer lock.Release(ctx)

	var computed []models.SettlementEntry
	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.entries.WithTx(tx)
		date := dateutil.SettlementDate(event.OccurredAt)

		prior, err := repo.FindLiveByEventID(event.ID)
		if err != nil {
			return err
		}
		// Voids FAILED leftovers too; only counter-bearing entries have a
		// batch contribution to reverse.
		if _, err := repo.VoidByEventID(event.ID); err != nil {
			return err
		}
		if prior = counterBearing(prior); len(prior) > 0 {
			if err := s.batches.Reverse(ctx, tx, date, deltaFor(orderChain(prior))); err != nil {
				return err
			}
		}

		var delta batch.Delta
		computed, delta, err = s.compute(ctx, event)
		if err != nil {
			return err
		}

		b, err := s.batches.Register(ctx, tx, date, delta)
		if err != nil {
			return err
		}
		for i := range computed {
			computed[i].SettlementBatchID = &b.ID
		}
		return repo.CreateAll(computed)
	})
	if err != nil {
		return nil, err
	}
	return computed, nil
}

func (s *service) EntriesByEvent(ctx context.Context, eventID uuid.UUID) ([]models.SettlementEntry, error) {
	return s.entries.FindByEventID(eventID)
}

func (s *service) Query(ctx context.Context, q repositories.SettlementQuery) ([]models.SettlementEntry, int64, error) {
	return s.entries.Query(q)
}

// compute builds the full entry set and its batch delta for one event.
func (s *service) compute(ctx context.Context, event *models.TransactionEvent) ([]models.SettlementEntry, batch.Delta, error) {
	var (
		computed []models.SettlementEntry
		err      error
	)

	switch event.EventType {
	case models.EventTypeApproval:
		computed, err = s.computeApproval(ctx, event)
	case models.EventTypeCancellation:
		computed, err = s.computeCancellation(event)
	case models.EventTypePartialCancel:
		computed, err = s.computePartialCancellation(event)
	default:
		return nil, batch.Delta{}, fmt.Errorf("unsupported event type %q", event.EventType)
	}
	if err != nil {
		return computed, batch.Delta{}, err
	}

	return computed, deltaFor(computed), nil
}

func (s *service) computeApproval(ctx context.Context, event *models.TransactionEvent) ([]models.SettlementEntry, error) {
	refs, err := s.hierarchy.ResolveAncestors(ctx, event.MerchantID, event.OccurredAt)
	if err != nil {
		return nil, err
	}

	chain := make([]levelFee, 0, len(refs))
	for _, ref := range refs {
		fee, err := s.fees.Resolve(ctx, ref.EntityID, event.PaymentMethodID, event.OccurredAt)
		if err != nil {
			if errors.Is(err, feeconfig.ErrNoFeeConfig) && s.feeMissing == FeeMissingZero {
				fee = feeconfig.ZeroFee
			} else if errors.Is(err, feeconfig.ErrNoFeeConfig) {
				return nil, fmt.Errorf("%w: %s (%s)", ErrFeeConfigMissing, ref.EntityPath, ref.EntityType)
			} else {
				return nil, err
			}
		}
		chain = append(chain, levelFee{ref: ref, fee: fee})
	}

	return approvalEntries(event, chain, s.policy)
}

func (s *service) computeCancellation(event *models.TransactionEvent) ([]models.SettlementEntry, error) {
	originals, err := s.liveOriginals(event)
	if err != nil {
		return nil, err
	}
	mirrored := mirrorEntries(event, originals)
	if err := validateZeroSum(mirrored[0].Amount, mirrored, s.policy); err != nil {
		return mirrored, err
	}
	return mirrored, nil
}

func (s *service) computePartialCancellation(event *models.TransactionEvent) ([]models.SettlementEntry, error) {
	originals, err := s.liveOriginals(event)
	if err != nil {
		return nil, err
	}
	scaled, err := proportionalEntries(event, originals, s.policy)
	if err != nil {
		return scaled, err
	}
	if err := validateZeroSum(scaled[0].Amount, scaled, s.policy); err != nil {
		return scaled, err
	}
	return scaled, nil
}

func (s *service) liveOriginals(event *models.TransactionEvent) ([]models.SettlementEntry, error) {
	if event.OriginalEventID == nil {
		return nil, fmt.Errorf("cancellation event %s has no original event", event.ID)
	}
	originals, err := s.entries.FindLiveByEventID(*event.OriginalEventID)
	if err != nil {
		return nil, err
	}
	if len(originals) == 0 {
		return nil, ErrOriginalNotSettled
	}
	return originals, nil
}

// persistFailed records an invalid entry set for audit without touching
// batch counters. Best effort; the settlement error is what the caller
// sees.
func (s *service) persistFailed(event *models.TransactionEvent, computed []models.SettlementEntry) {
	for i := range computed {
		computed[i].Status = models.SettlementStatusFailed
	}
	if err := s.entries.CreateAll(computed); err != nil {
		log.Printf("failed to persist FAILED entries for event %s: %v", event.ID, err)
	}
}

// deltaFor derives the batch counter contribution from a waterfall-ordered
// entry set: the signed gross, the signed total fee and one transaction.
func deltaFor(entries []models.SettlementEntry) batch.Delta {
	fee := decimal.Zero
	for _, e := range entries {
		fee = fee.Add(e.FeeAmount)
	}
	d := batch.Delta{Transactions: 1, Fee: fee}
	if len(entries) > 0 {
		d.Amount = entries[0].Amount
	}
	return d
}

func lockKey(eventID uuid.UUID) string {
	return "settle:event:" + eventID.String()
}
