package feeconfig

import (
	"time"

	"billpay/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tier is one breakpoint of a TIERED fee: the rate applies when the
// transaction amount is at least MinAmount. Boundaries must be strictly
// increasing.
type Tier struct {
	MinAmount decimal.Decimal `json:"minAmount"`
	FeeRate   decimal.Decimal `json:"feeRate"`
}

// ResolvedFee is the effective fee for an entity + payment method at a
// point in time.
type ResolvedFee struct {
	ConfigID uuid.UUID
	FeeType  models.FeeType
	FeeRate  decimal.Decimal
	FixedFee *decimal.Decimal
	MinFee   *decimal.Decimal
	MaxFee   *decimal.Decimal
	Tiers    []Tier
}

// ZeroFee is the effective fee used when the missing-config policy is
// "zero": settle the full amount with no deduction.
var ZeroFee = ResolvedFee{
	FeeType: models.FeeTypePercentage,
	FeeRate: decimal.Zero,
}

// CreateRequest creates a fee configuration for an entity.
type CreateRequest struct {
	EntityID        uuid.UUID   `json:"entityId" validate:"required"`
	EntityType      string      `json:"entityType" validate:"required"`
	PaymentMethodID uuid.UUID   `json:"paymentMethodId" validate:"required"`
	FeeType         string      `json:"feeType" validate:"required,oneof=PERCENTAGE FIXED TIERED"`
	FeeRate         string      `json:"feeRate" validate:"required"`
	FixedFee        *string     `json:"fixedFee"`
	TierConfig      models.JSON `json:"tierConfig"`
	MinFee          *string     `json:"minFee"`
	MaxFee          *string     `json:"maxFee"`
	Priority        int         `json:"priority"`
	ValidFrom       time.Time   `json:"validFrom" validate:"required"`
	ValidUntil      *time.Time  `json:"validUntil"`
	Reason          string      `json:"reason"`
}

// UpdateRequest changes rate, windows or priority of a configuration.
type UpdateRequest struct {
	FeeRate    *string     `json:"feeRate"`
	FixedFee   *string     `json:"fixedFee"`
	TierConfig models.JSON `json:"tierConfig"`
	MinFee     *string     `json:"minFee"`
	MaxFee     *string     `json:"maxFee"`
	Priority   *int        `json:"priority"`
	ValidFrom  *time.Time  `json:"validFrom"`
	ValidUntil *time.Time  `json:"validUntil"`
	Reason     string      `json:"reason"`
}
