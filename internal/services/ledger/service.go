// Package ledger is the append-only record of payment transaction events,
// the settlement engine's input. Events are immutable; cancellations
// reference the approval they reverse.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"billpay/internal/models"
	"billpay/internal/repositories"
	"billpay/internal/services/hierarchy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Settler settles a recorded event. Implemented by the settlement engine.
type Settler interface {
	Settle(ctx context.Context, event *models.TransactionEvent) ([]models.SettlementEntry, error)
}

// Service ingests and reads transaction events.
type Service interface {
	// Ingest validates and records the event, then settles it. The event
	// is durable even when settlement fails; the returned error then
	// describes the settlement failure.
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.TransactionEvent, error)
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]models.TransactionEvent, error)
}

type service struct {
	events    repositories.TransactionEventRepository
	merchants repositories.MerchantRepository
	hierarchy hierarchy.Service
	settler   Settler
}

// NewService creates a new event ledger service.
func NewService(
	events repositories.TransactionEventRepository,
	merchants repositories.MerchantRepository,
	hierarchySvc hierarchy.Service,
	settler Settler,
) Service {
	if events == nil {
		panic("event repository is required")
	}
	if merchants == nil {
		panic("merchant repository is required")
	}
	if hierarchySvc == nil {
		panic("hierarchy service is required")
	}
	if settler == nil {
		panic("settler is required")
	}
	return &service{
		events:    events,
		merchants: merchants,
		hierarchy: hierarchySvc,
		settler:   settler,
	}
}

func (s *service) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	eventType := models.EventType(req.EventType)
	switch eventType {
	case models.EventTypeApproval, models.EventTypeCancellation, models.EventTypePartialCancel:
	default:
		return nil, ErrInvalidEventType
	}

	if _, err := s.merchants.GetByID(req.MerchantID); err != nil {
		if errors.Is(err, repositories.ErrMerchantNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, fmt.Errorf("failed to load merchant: %w", err)
	}

	// Attribution path valid at event time, not at ingest time.
	merchantPath, err := s.hierarchy.OrgPathAt(ctx, req.MerchantID, req.OccurredAt)
	if err != nil {
		return nil, err
	}

	event := &models.TransactionEvent{
		ID:              uuid.New(),
		TransactionID:   req.TransactionID,
		EventType:       eventType,
		MerchantID:      req.MerchantID,
		MerchantPath:    merchantPath,
		PaymentMethodID: req.PaymentMethodID,
		Amount:          amount,
		Currency:        req.Currency,
		Metadata:        req.Metadata,
		OccurredAt:      req.OccurredAt,
	}
	if event.Currency == "" {
		event.Currency = "KRW"
	}

	if event.IsCancellation() {
		original, err := s.findApproval(req.TransactionID)
		if err != nil {
			return nil, err
		}
		if amount.GreaterThan(original.Amount) {
			return nil, ErrCancelExceedsOriginal
		}
		event.OriginalEventID = &original.ID
	}

	seq, err := s.events.NextSequence(req.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to assign event sequence: %w", err)
	}
	event.EventSequence = seq
	event.CreatedAt = time.Now()

	if err := s.events.Create(event); err != nil {
		return nil, fmt.Errorf("failed to record event: %w", err)
	}

	entries, err := s.settler.Settle(ctx, event)
	if err != nil {
		// The ledger row stays; settlement can be retried via resettle.
		log.Printf("settlement failed for event %s: %v", event.ID, err)
		return &IngestResult{Event: event}, err
	}

	return &IngestResult{Event: event, Entries: entries}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.TransactionEvent, error) {
	event, err := s.events.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (s *service) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]models.TransactionEvent, error) {
	return s.events.ListByTransaction(transactionID)
}

func (s *service) findApproval(transactionID uuid.UUID) (*models.TransactionEvent, error) {
	events, err := s.events.ListByTransaction(transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction events: %w", err)
	}
	for i := range events {
		if events[i].EventType == models.EventTypeApproval {
			return &events[i], nil
		}
	}
	return nil, ErrApprovalNotFound
}
