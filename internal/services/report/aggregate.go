package report

import (
	"sort"
	"strings"

	"billpay/internal/models"
	"billpay/internal/services/settlement"
	"billpay/internal/utils/dateutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// reportable filters out entry states that never count toward reports.
// FAILED entries are audit artifacts of rejected settlements.
func reportable(entries []models.SettlementEntry) []models.SettlementEntry {
	out := entries[:0:0]
	for _, e := range entries {
		if e.Status == models.SettlementStatusFailed || e.Status == models.SettlementStatusCancelled {
			continue
		}
		out = append(out, e)
	}
	return out
}

// earned is what one entry's entity keeps. Merchants and the platform
// residual keep their net. Organizations keep their level fee under
// fee_on_net and their margin (the whole entry) under margin_on_gross.
func earned(e models.SettlementEntry, policy settlement.Policy) decimal.Decimal {
	switch {
	case e.EntityType == models.EntityTypeMerchant:
		return e.NetAmount
	case policy == settlement.PolicyFeeOnNet:
		return e.FeeAmount
	default:
		return e.NetAmount
	}
}

func isMerchantEntry(e models.SettlementEntry) bool {
	return e.EntityType == models.EntityTypeMerchant
}

// summarize rolls a range of entries into the overall totals. Gross counts
// merchant-level amounts only; fees sum across the whole waterfall.
func summarize(entries []models.SettlementEntry) (txCount int, gross, fee decimal.Decimal) {
	txCount, gross, fee, _, _ = scopedTotals(entries, "")
	return txCount, gross, fee
}

// scopedTotals rolls entries into summary totals anchored on one entity
// level, splitting the anchor's volume into its CREDIT and DEBIT parts. An
// empty entityType anchors on merchants with fees summed across the whole
// waterfall; a concrete type restricts both volume and fees to that
// level's entries.
func scopedTotals(entries []models.SettlementEntry, entityType string) (txCount int, gross, fee, credit, debit decimal.Decimal) {
	anchor := entityType
	if anchor == "" {
		anchor = models.EntityTypeMerchant
	}
	gross, fee, credit, debit = decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	events := map[uuid.UUID]struct{}{}
	for _, e := range entries {
		if entityType == "" || e.EntityType == entityType {
			fee = fee.Add(e.FeeAmount)
		}
		if e.EntityType != anchor {
			continue
		}
		events[e.TransactionEventID] = struct{}{}
		gross = gross.Add(e.Amount)
		if e.EntryType == models.EntryTypeDebit {
			debit = debit.Add(e.Amount)
		} else {
			credit = credit.Add(e.Amount)
		}
	}
	return len(events), gross, fee, credit, debit
}

// rollupMerchants groups merchant-level entries per merchant.
func rollupMerchants(entries []models.SettlementEntry) map[uuid.UUID]*MerchantRollup {
	rollups := map[uuid.UUID]*MerchantRollup{}
	for _, e := range entries {
		if !isMerchantEntry(e) {
			continue
		}
		r, ok := rollups[e.MerchantID]
		if !ok {
			r = &MerchantRollup{
				MerchantID:     e.MerchantID,
				TotalAmount:    decimal.Zero,
				TotalFeeAmount: decimal.Zero,
				TotalNetAmount: decimal.Zero,
			}
			rollups[e.MerchantID] = r
		}
		r.TransactionCount++
		r.TotalAmount = r.TotalAmount.Add(e.Amount)
		r.TotalFeeAmount = r.TotalFeeAmount.Add(e.FeeAmount)
		r.TotalNetAmount = r.TotalNetAmount.Add(e.NetAmount)
	}
	return rollups
}

// earningsByPath sums, per non-merchant node path, what the node earned.
func earningsByPath(entries []models.SettlementEntry, policy settlement.Policy) map[string]*HierarchyFee {
	fees := map[string]*HierarchyFee{}
	for _, e := range entries {
		if isMerchantEntry(e) {
			continue
		}
		f, ok := fees[e.EntityPath]
		if !ok {
			f = &HierarchyFee{
				EntityID:   e.EntityID,
				EntityType: e.EntityType,
				EntityPath: e.EntityPath,
				FeeEarned:  decimal.Zero,
			}
			fees[e.EntityPath] = f
		}
		f.FeeEarned = f.FeeEarned.Add(earned(e, policy))
	}
	return fees
}

// groupByDate buckets entries by their KST settlement date.
func groupByDate(entries []models.SettlementEntry) map[string][]models.SettlementEntry {
	byDate := map[string][]models.SettlementEntry{}
	for _, e := range entries {
		key := dateutil.FormatDate(dateutil.SettlementDate(e.CreatedAt))
		byDate[key] = append(byDate[key], e)
	}
	return byDate
}

func sortedDates(byDate map[string][]models.SettlementEntry) []string {
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// dailyRow rolls one date's entries into a merchant-centric row.
func dailyRow(date string, entries []models.SettlementEntry) DailyRow {
	row := DailyRow{
		Date:           date,
		TotalAmount:    decimal.Zero,
		TotalFeeAmount: decimal.Zero,
		TotalNetAmount: decimal.Zero,
	}
	merchants := map[uuid.UUID]struct{}{}
	for _, e := range entries {
		if !isMerchantEntry(e) {
			continue
		}
		row.TransactionCount++
		row.TotalAmount = row.TotalAmount.Add(e.Amount)
		row.TotalFeeAmount = row.TotalFeeAmount.Add(e.FeeAmount)
		row.TotalNetAmount = row.TotalNetAmount.Add(e.NetAmount)
		merchants[e.MerchantID] = struct{}{}
	}
	row.MerchantCount = len(merchants)
	return row
}

// inSubtree reports whether the entry's path sits at or under root.
func inSubtree(e models.SettlementEntry, root string) bool {
	return e.EntityPath == root || strings.HasPrefix(e.EntityPath, root+models.PathSeparator)
}
