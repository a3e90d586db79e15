package report

import (
	"testing"
	"time"

	"billpay/internal/models"
	"billpay/internal/services/settlement"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// entriesFixture is one approval's waterfall plus a failed entry that
// reports must ignore.
func entriesFixture() (merchantID uuid.UUID, entries []models.SettlementEntry) {
	merchantID = uuid.New()
	eventID := uuid.New()
	agencyID := uuid.New()
	distID := uuid.New()
	created := time.Date(2026, 3, 15, 5, 0, 0, 0, time.UTC)

	entries = []models.SettlementEntry{
		{
			ID:                 uuid.New(),
			TransactionEventID: eventID,
			MerchantID:         merchantID,
			EntityID:           &merchantID,
			EntityType:         models.EntityTypeMerchant,
			EntityPath:         "master.dist_001.agcy_001",
			EntryType:          models.EntryTypeCredit,
			Amount:             dec("10000"),
			FeeAmount:          dec("200"),
			NetAmount:          dec("9800"),
			Status:             models.SettlementStatusPending,
			CreatedAt:          created,
		},
		{
			ID:                 uuid.New(),
			TransactionEventID: eventID,
			MerchantID:         merchantID,
			EntityID:           &agencyID,
			EntityType:         string(models.OrgTypeAgency),
			EntityPath:         "master.dist_001.agcy_001",
			EntryType:          models.EntryTypeCredit,
			Amount:             dec("9800"),
			FeeAmount:          dec("98"),
			NetAmount:          dec("9702"),
			Status:             models.SettlementStatusPending,
			CreatedAt:          created,
		},
		{
			ID:                 uuid.New(),
			TransactionEventID: eventID,
			MerchantID:         merchantID,
			EntityID:           &distID,
			EntityType:         string(models.OrgTypeDistributor),
			EntityPath:         "master.dist_001",
			EntryType:          models.EntryTypeCredit,
			Amount:             dec("9702"),
			FeeAmount:          dec("48.51"),
			NetAmount:          dec("9653.49"),
			Status:             models.SettlementStatusPending,
			CreatedAt:          created,
		},
		{
			ID:                 uuid.New(),
			TransactionEventID: uuid.New(),
			MerchantID:         merchantID,
			EntityID:           &merchantID,
			EntityType:         models.EntityTypeMerchant,
			EntityPath:         "master.dist_001.agcy_001",
			EntryType:          models.EntryTypeCredit,
			Amount:             dec("5000"),
			FeeAmount:          dec("100"),
			NetAmount:          dec("4900"),
			Status:             models.SettlementStatusFailed,
			CreatedAt:          created,
		},
	}
	return merchantID, entries
}

func TestReportableDropsFailedAndCancelled(t *testing.T) {
	_, entries := entriesFixture()
	entries[1].Status = models.SettlementStatusCancelled

	live := reportable(entries)
	assert.Len(t, live, 2)
	for _, e := range live {
		assert.NotEqual(t, models.SettlementStatusFailed, e.Status)
		assert.NotEqual(t, models.SettlementStatusCancelled, e.Status)
	}
}

func TestSummarize(t *testing.T) {
	_, entries := entriesFixture()

	txCount, gross, fee := summarize(reportable(entries))
	assert.Equal(t, 1, txCount)
	assert.True(t, gross.Equal(dec("10000")), "gross counts merchant entries only, got %s", gross)
	assert.True(t, fee.Equal(dec("346.51")), "fee sums the whole waterfall, got %s", fee)
}

func TestEarnedByPolicy(t *testing.T) {
	_, entries := entriesFixture()
	merchant, agency := entries[0], entries[1]

	assert.True(t, earned(merchant, settlement.PolicyFeeOnNet).Equal(dec("9800")))
	assert.True(t, earned(merchant, settlement.PolicyMarginOnGross).Equal(dec("9800")))
	assert.True(t, earned(agency, settlement.PolicyFeeOnNet).Equal(dec("98")))
	// Under the margin policy an org entry's net is what it keeps.
	assert.True(t, earned(agency, settlement.PolicyMarginOnGross).Equal(dec("9702")))
}

func TestRollupMerchants(t *testing.T) {
	merchantID, entries := entriesFixture()
	other := uuid.New()
	entries = append(reportable(entries), models.SettlementEntry{
		ID:                 uuid.New(),
		TransactionEventID: uuid.New(),
		MerchantID:         other,
		EntityID:           &other,
		EntityType:         models.EntityTypeMerchant,
		EntityPath:         "master.dist_001.agcy_002",
		Amount:             dec("3000"),
		FeeAmount:          dec("60"),
		NetAmount:          dec("2940"),
		Status:             models.SettlementStatusPending,
		CreatedAt:          time.Now(),
	})

	rollups := rollupMerchants(entries)
	assert.Len(t, rollups, 2)
	assert.Equal(t, 1, rollups[merchantID].TransactionCount)
	assert.True(t, rollups[merchantID].TotalAmount.Equal(dec("10000")))
	assert.True(t, rollups[merchantID].TotalNetAmount.Equal(dec("9800")))
	assert.True(t, rollups[other].TotalFeeAmount.Equal(dec("60")))
}

func TestEarningsByPath(t *testing.T) {
	_, entries := entriesFixture()

	fees := earningsByPath(reportable(entries), settlement.PolicyFeeOnNet)
	assert.Len(t, fees, 2)
	assert.True(t, fees["master.dist_001.agcy_001"].FeeEarned.Equal(dec("98")))
	assert.True(t, fees["master.dist_001"].FeeEarned.Equal(dec("48.51")))

	margins := earningsByPath(reportable(entries), settlement.PolicyMarginOnGross)
	assert.True(t, margins["master.dist_001"].FeeEarned.Equal(dec("9653.49")))
}

func TestGroupByDateUsesSettlementDay(t *testing.T) {
	merchantID := uuid.New()
	// 16:00 UTC on the 15th is already the 16th in KST.
	entries := []models.SettlementEntry{
		{
			ID:         uuid.New(),
			MerchantID: merchantID,
			EntityID:   &merchantID,
			EntityType: models.EntityTypeMerchant,
			Amount:     dec("100"),
			FeeAmount:  dec("2"),
			NetAmount:  dec("98"),
			CreatedAt:  time.Date(2026, 3, 15, 5, 0, 0, 0, time.UTC),
		},
		{
			ID:         uuid.New(),
			MerchantID: merchantID,
			EntityID:   &merchantID,
			EntityType: models.EntityTypeMerchant,
			Amount:     dec("200"),
			FeeAmount:  dec("4"),
			NetAmount:  dec("196"),
			CreatedAt:  time.Date(2026, 3, 15, 16, 0, 0, 0, time.UTC),
		},
	}

	byDate := groupByDate(entries)
	assert.Len(t, byDate, 2)
	assert.Len(t, byDate["2026-03-15"], 1)
	assert.Len(t, byDate["2026-03-16"], 1)
	assert.Equal(t, []string{"2026-03-15", "2026-03-16"}, sortedDates(byDate))
}

func TestDailyRow(t *testing.T) {
	_, entries := entriesFixture()

	row := dailyRow("2026-03-15", reportable(entries))
	assert.Equal(t, "2026-03-15", row.Date)
	assert.Equal(t, 1, row.TransactionCount)
	assert.Equal(t, 1, row.MerchantCount)
	assert.True(t, row.TotalAmount.Equal(dec("10000")))
	assert.True(t, row.TotalNetAmount.Equal(dec("9800")))
}

func TestInSubtree(t *testing.T) {
	e := models.SettlementEntry{EntityPath: "master.dist_001.agcy_001"}
	assert.True(t, inSubtree(e, "master.dist_001.agcy_001"))
	assert.True(t, inSubtree(e, "master.dist_001"))
	assert.True(t, inSubtree(e, "master"))
	assert.False(t, inSubtree(e, "master.dist_002"))
	assert.False(t, inSubtree(e, "master.dist_001.agcy_0"))
}

func TestScopedTotals(t *testing.T) {
	merchantID, entries := entriesFixture()
	live := reportable(entries)
	// A partial cancellation reverses a quarter of the approval.
	live = append(live, models.SettlementEntry{
		ID:                 uuid.New(),
		TransactionEventID: uuid.New(),
		MerchantID:         merchantID,
		EntityID:           &merchantID,
		EntityType:         models.EntityTypeMerchant,
		EntityPath:         "master.dist_001.agcy_001",
		EntryType:          models.EntryTypeDebit,
		Amount:             dec("-2500"),
		FeeAmount:          dec("-50"),
		NetAmount:          dec("-2450"),
		Status:             models.SettlementStatusPending,
		CreatedAt:          time.Now(),
	})

	t.Run("unscoped splits merchant volume by entry type", func(t *testing.T) {
		txCount, gross, fee, credit, debit := scopedTotals(live, "")
		assert.Equal(t, 2, txCount)
		assert.True(t, gross.Equal(dec("7500")), "got %s", gross)
		assert.True(t, credit.Equal(dec("10000")))
		assert.True(t, debit.Equal(dec("-2500")))
		assert.True(t, fee.Equal(dec("296.51")), "fees span the waterfall, got %s", fee)
	})

	t.Run("entity type scope restricts volume and fees", func(t *testing.T) {
		txCount, gross, fee, credit, debit := scopedTotals(live, string(models.OrgTypeAgency))
		assert.Equal(t, 1, txCount)
		assert.True(t, gross.Equal(dec("9800")))
		assert.True(t, credit.Equal(dec("9800")))
		assert.True(t, debit.IsZero())
		assert.True(t, fee.Equal(dec("98")))
	})
}
