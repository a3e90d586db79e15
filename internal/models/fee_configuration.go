package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type FeeType string

const (
	FeeTypePercentage FeeType = "PERCENTAGE"
	FeeTypeFixed      FeeType = "FIXED"
	FeeTypeTiered     FeeType = "TIERED"
)

type FeeConfigStatus string

const (
	FeeConfigStatusActive   FeeConfigStatus = "ACTIVE"
	FeeConfigStatusInactive FeeConfigStatus = "INACTIVE"
	FeeConfigStatusPending  FeeConfigStatus = "PENDING"
	FeeConfigStatusExpired  FeeConfigStatus = "EXPIRED"
)

// FeeConfiguration is one versioned fee rule for an entity + payment method.
// Several may overlap; resolution picks the ACTIVE one with the highest
// priority whose [ValidFrom, ValidUntil) window contains the event time,
// ties broken by the most recent ValidFrom.
type FeeConfiguration struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	EntityID        uuid.UUID        `gorm:"type:uuid;not null;index:idx_fee_entity_method" json:"entityId"`
	EntityType      string           `gorm:"not null" json:"entityType"`
	EntityPath      string           `json:"entityPath"`
	PaymentMethodID uuid.UUID        `gorm:"type:uuid;not null;index:idx_fee_entity_method" json:"paymentMethodId"`
	FeeType         FeeType          `gorm:"not null" json:"feeType"`
	FeeRate         decimal.Decimal  `gorm:"type:numeric(10,6);not null" json:"feeRate"`
	FixedFee        *decimal.Decimal `gorm:"type:numeric(18,4)" json:"fixedFee,omitempty"`
	TierConfig      JSON             `gorm:"type:jsonb" json:"tierConfig,omitempty"`
	MinFee          *decimal.Decimal `gorm:"type:numeric(18,4)" json:"minFee,omitempty"`
	MaxFee          *decimal.Decimal `gorm:"type:numeric(18,4)" json:"maxFee,omitempty"`
	Priority        int              `gorm:"not null;default:0" json:"priority"`
	ValidFrom       time.Time        `gorm:"not null" json:"validFrom"`
	ValidUntil      *time.Time       `json:"validUntil,omitempty"`
	Status          FeeConfigStatus  `gorm:"not null;default:'PENDING'" json:"status"`
	Metadata        JSON             `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// FeeConfigHistory journal actions.
const (
	FeeConfigActionCreate     = "CREATE"
	FeeConfigActionUpdate     = "UPDATE"
	FeeConfigActionActivate   = "ACTIVATE"
	FeeConfigActionDeactivate = "DEACTIVATE"
)

// FeeConfigHistory is the immutable audit journal of fee configuration
// changes. Rows are only ever inserted.
type FeeConfigHistory struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	FeeConfigID uuid.UUID        `gorm:"type:uuid;not null;index" json:"feeConfigId"`
	EntityID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"entityId"`
	Action      string           `gorm:"not null" json:"action"`
	OldStatus   *FeeConfigStatus `json:"oldStatus,omitempty"`
	NewStatus   FeeConfigStatus  `gorm:"not null" json:"newStatus"`
	OldRate     *decimal.Decimal `gorm:"type:numeric(10,6)" json:"oldRate,omitempty"`
	NewRate     decimal.Decimal  `gorm:"type:numeric(10,6)" json:"newRate"`
	OldValue    JSON             `gorm:"type:jsonb" json:"oldValue,omitempty"`
	NewValue    JSON             `gorm:"type:jsonb" json:"newValue,omitempty"`
	Reason      string           `json:"reason"`
	ChangedBy   string           `json:"changedBy"`
	CreatedAt   time.Time        `json:"createdAt"`
}
