package ledger

import (
	"time"

	"billpay/internal/models"

	"github.com/google/uuid"
)

// IngestRequest records one payment event. Amount is always positive;
// direction comes from the event type.
type IngestRequest struct {
	TransactionID   uuid.UUID   `json:"transactionId" validate:"required"`
	EventType       string      `json:"eventType" validate:"required,oneof=APPROVAL CANCELLATION PARTIAL_CANCELLATION"`
	MerchantID      uuid.UUID   `json:"merchantId" validate:"required"`
	PaymentMethodID uuid.UUID   `json:"paymentMethodId" validate:"required"`
	Amount          string      `json:"amount" validate:"required"`
	Currency        string      `json:"currency"`
	OccurredAt      time.Time   `json:"occurredAt" validate:"required"`
	Metadata        models.JSON `json:"metadata"`
}

// IngestResult is the recorded event plus the settlement entries it
// produced. Entries may be empty when settlement was aborted; the event
// itself is never rolled back.
type IngestResult struct {
	Event   *models.TransactionEvent `json:"event"`
	Entries []models.SettlementEntry `json:"entries"`
}
