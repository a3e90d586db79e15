package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryTypeCredit EntryType = "CREDIT"
	EntryTypeDebit  EntryType = "DEBIT"
)

type SettlementStatus string

const (
	SettlementStatusPending   SettlementStatus = "PENDING"
	SettlementStatusSettled   SettlementStatus = "SETTLED"
	SettlementStatusFailed    SettlementStatus = "FAILED"
	SettlementStatusCancelled SettlementStatus = "CANCELLED"
)

// RootEntityPath marks the platform residual entry emitted by the
// margin-on-gross waterfall; it has no entity id of its own.
const RootEntityPath = "master"

// SettlementEntry is one row per (transaction event, entity in the
// merchant's ancestor chain). NetAmount = Amount - FeeAmount always holds.
type SettlementEntry struct {
	ID                 uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	SettlementBatchID  *uuid.UUID       `gorm:"type:uuid;index" json:"settlementBatchId,omitempty"`
	TransactionEventID uuid.UUID        `gorm:"type:uuid;not null;index" json:"transactionEventId"`
	TransactionID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"transactionId"`
	MerchantID         uuid.UUID        `gorm:"type:uuid;not null;index" json:"merchantId"`
	EntityID           *uuid.UUID       `gorm:"type:uuid;index" json:"entityId,omitempty"`
	EntityType         string           `gorm:"not null" json:"entityType"`
	EntityPath         string           `gorm:"not null;index" json:"entityPath"`
	EntryType          EntryType        `gorm:"not null" json:"entryType"`
	Amount             decimal.Decimal  `gorm:"type:numeric(18,4);not null" json:"amount"`
	FeeAmount          decimal.Decimal  `gorm:"type:numeric(18,4);not null" json:"feeAmount"`
	NetAmount          decimal.Decimal  `gorm:"type:numeric(18,4);not null" json:"netAmount"`
	FeeRate            decimal.Decimal  `gorm:"type:numeric(10,6);not null" json:"feeRate"`
	Currency           string           `gorm:"not null" json:"currency"`
	Status             SettlementStatus `gorm:"not null;default:'PENDING';index" json:"status"`
	SettledAt          *time.Time       `json:"settledAt,omitempty"`
	CreatedAt          time.Time        `gorm:"index" json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "PENDING"
	BatchStatusProcessing BatchStatus = "PROCESSING"
	BatchStatusCompleted  BatchStatus = "COMPLETED"
	BatchStatusFailed     BatchStatus = "FAILED"
)

// SettlementBatch groups the entries of one settlement date. Counters are
// maintained transactionally as events commit; Version guards them against
// lost updates.
type SettlementBatch struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	BatchNumber       string          `gorm:"uniqueIndex;not null" json:"batchNumber"`
	SettlementDate    time.Time       `gorm:"type:date;uniqueIndex;not null" json:"settlementDate"`
	Status            BatchStatus     `gorm:"not null;default:'PENDING'" json:"status"`
	TotalTransactions int             `gorm:"not null;default:0" json:"totalTransactions"`
	TotalAmount       decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"totalAmount"`
	TotalFeeAmount    decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"totalFeeAmount"`
	Version           int             `gorm:"not null;default:0" json:"-"`
	ProcessedAt       *time.Time      `json:"processedAt,omitempty"`
	ApprovedAt        *time.Time      `json:"approvedAt,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}
