package models

import (
	"time"

	"github.com/google/uuid"
)

type MerchantStatus string

const (
	MerchantStatusActive     MerchantStatus = "ACTIVE"
	MerchantStatusSuspended  MerchantStatus = "SUSPENDED"
	MerchantStatusTerminated MerchantStatus = "TERMINATED"
)

// Merchant belongs to exactly one organization at a time. OrgPath mirrors
// the owning organization's materialized path and is what settlement
// attribution walks.
type Merchant struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	MerchantCode   string         `gorm:"uniqueIndex;not null" json:"merchantCode"`
	Name           string         `gorm:"not null" json:"name"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organizationId"`
	OrgPath        string         `gorm:"not null;index" json:"orgPath"`
	Status         MerchantStatus `gorm:"not null;default:'ACTIVE'" json:"status"`
	Metadata       JSON           `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// MerchantOrgHistory records a merchant re-parenting. Append-only: events
// that occurred before MovedAt settle against FromOrgPath, events after
// against ToOrgPath.
type MerchantOrgHistory struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MerchantID  uuid.UUID `gorm:"type:uuid;not null;index" json:"merchantId"`
	FromOrgID   uuid.UUID `gorm:"type:uuid;not null" json:"fromOrgId"`
	FromOrgPath string    `gorm:"not null" json:"fromOrgPath"`
	ToOrgID     uuid.UUID `gorm:"type:uuid;not null" json:"toOrgId"`
	ToOrgPath   string    `gorm:"not null" json:"toOrgPath"`
	MovedAt     time.Time `gorm:"not null;index" json:"movedAt"`
	MovedBy     string    `json:"movedBy"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"createdAt"`
}
