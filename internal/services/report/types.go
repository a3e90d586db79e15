package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Summary is the overall settlement rollup for a date range. Fees sum
// across every level of the waterfall; net is what remains of the gross
// after all of them.
type Summary struct {
	StartDate         string          `json:"startDate"`
	EndDate           string          `json:"endDate"`
	TotalTransactions int             `json:"totalTransactions"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	CreditAmount      decimal.Decimal `json:"creditAmount"`
	DebitAmount       decimal.Decimal `json:"debitAmount"`
	TotalFeeAmount    decimal.Decimal `json:"totalFeeAmount"`
	TotalNetAmount    decimal.Decimal `json:"totalNetAmount"`
}

// OrgSummary is one organization's rollup: subtree volume plus what the
// organization itself earned from it.
type OrgSummary struct {
	OrganizationID   uuid.UUID       `json:"organizationId"`
	OrgCode          string          `json:"orgCode"`
	Name             string          `json:"name"`
	OrgType          string          `json:"orgType"`
	Path             string          `json:"path"`
	TransactionCount int             `json:"transactionCount"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	FeeEarned        decimal.Decimal `json:"feeEarned"`
	TotalNetAmount   decimal.Decimal `json:"totalNetAmount"`
}

// MerchantRollup is one merchant's settlement rollup within a range or day.
type MerchantRollup struct {
	MerchantID       uuid.UUID       `json:"merchantId"`
	MerchantCode     string          `json:"merchantCode"`
	Name             string          `json:"name"`
	TransactionCount int             `json:"transactionCount"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	TotalFeeAmount   decimal.Decimal `json:"totalFeeAmount"`
	TotalNetAmount   decimal.Decimal `json:"totalNetAmount"`
}

// HierarchyFee is what one node of the hierarchy earned inside a subtree.
type HierarchyFee struct {
	EntityID   *uuid.UUID      `json:"entityId,omitempty"`
	EntityType string          `json:"entityType"`
	EntityPath string          `json:"entityPath"`
	FeeEarned  decimal.Decimal `json:"feeEarned"`
}

// Calculation breaks an organization's earnings down against its subtree.
type Calculation struct {
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	TotalFeeAmount    decimal.Decimal `json:"totalFeeAmount"`
	OwnFeeAmount      decimal.Decimal `json:"ownFeeAmount"`
	ChildOrgFeeAmount decimal.Decimal `json:"childOrgFeeAmount"`
	NetAmount         decimal.Decimal `json:"netAmount"`
}

// OrgDetail is the full drill-down for one organization.
type OrgDetail struct {
	Summary             OrgSummary       `json:"summary"`
	MerchantSettlements []MerchantRollup `json:"merchantSettlements"`
	HierarchyFees       []HierarchyFee   `json:"hierarchyFees"`
	Calculation         Calculation      `json:"calculation"`
}

// DailyRow is one settlement date's rollup across merchants.
type DailyRow struct {
	Date             string          `json:"date"`
	MerchantCount    int             `json:"merchantCount"`
	TransactionCount int             `json:"transactionCount"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	TotalFeeAmount   decimal.Decimal `json:"totalFeeAmount"`
	TotalNetAmount   decimal.Decimal `json:"totalNetAmount"`
}

// DailyDetail is one settlement date broken down per merchant.
type DailyDetail struct {
	Date      string           `json:"date"`
	Totals    DailyRow         `json:"totals"`
	Merchants []MerchantRollup `json:"merchants"`
}

// MerchantStatement is one merchant's day-by-day settlement history.
type MerchantStatement struct {
	MerchantID   uuid.UUID      `json:"merchantId"`
	MerchantCode string         `json:"merchantCode"`
	Name         string         `json:"name"`
	StartDate    string         `json:"startDate"`
	EndDate      string         `json:"endDate"`
	Days         []DailyRow     `json:"days"`
	Totals       MerchantRollup `json:"totals"`
}

// OrgDailyRow is one settlement date's earnings rollup across
// organizations.
type OrgDailyRow struct {
	Date              string          `json:"date"`
	OrganizationCount int             `json:"organizationCount"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	FeeEarned         decimal.Decimal `json:"feeEarned"`
}

// OrgDailyDetail is one settlement date broken down per organization.
type OrgDailyDetail struct {
	Date          string           `json:"date"`
	Totals        OrgDailyRow      `json:"totals"`
	Organizations []OrgEarningsRow `json:"organizations"`
}

// OrgEarningsRow is one organization's earnings on one date or range.
type OrgEarningsRow struct {
	OrganizationID uuid.UUID       `json:"organizationId"`
	OrgCode        string          `json:"orgCode"`
	Name           string          `json:"name"`
	OrgType        string          `json:"orgType"`
	Path           string          `json:"path"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	FeeEarned      decimal.Decimal `json:"feeEarned"`
}

// OrgStatement is one organization's day-by-day earnings history.
type OrgStatement struct {
	OrganizationID uuid.UUID       `json:"organizationId"`
	OrgCode        string          `json:"orgCode"`
	Name           string          `json:"name"`
	StartDate      string          `json:"startDate"`
	EndDate        string          `json:"endDate"`
	Days           []DailyRow      `json:"days"`
	TotalEarned    decimal.Decimal `json:"totalEarned"`
}

// Range is a parsed inclusive date range in KST.
type Range struct {
	Start time.Time
	End   time.Time
}
