package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod is the instrument a transaction was paid with (card,
// virtual account, ...). Fee configurations are keyed per method.
type PaymentMethod struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MethodCode string    `gorm:"uniqueIndex;not null" json:"methodCode"`
	Name       string    `gorm:"not null" json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
}
