package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventTypeApproval      EventType = "APPROVAL"
	EventTypeCancellation  EventType = "CANCELLATION"
	EventTypePartialCancel EventType = "PARTIAL_CANCELLATION"
)

// TransactionEvent is one append-only payment event. Rows are immutable
// once created; a cancellation references the approval it reverses via
// OriginalEventID.
type TransactionEvent struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TransactionID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"transactionId"`
	EventType       EventType       `gorm:"not null" json:"eventType"`
	EventSequence   int             `gorm:"not null" json:"eventSequence"`
	MerchantID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"merchantId"`
	MerchantPath    string          `gorm:"not null" json:"merchantPath"`
	PaymentMethodID uuid.UUID       `gorm:"type:uuid;not null" json:"paymentMethodId"`
	Amount          decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"amount"`
	Currency        string          `gorm:"not null;default:'KRW'" json:"currency"`
	OriginalEventID *uuid.UUID      `gorm:"type:uuid" json:"originalEventId,omitempty"`
	Metadata        JSON            `gorm:"type:jsonb" json:"metadata,omitempty"`
	OccurredAt      time.Time       `gorm:"not null;index" json:"occurredAt"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// IsCancellation reports whether the event reverses a prior approval.
func (e *TransactionEvent) IsCancellation() bool {
	return e.EventType == EventTypeCancellation || e.EventType == EventTypePartialCancel
}
