package settlement

import (
	"fmt"
	"sort"
	"time"

	"billpay/internal/models"
	"billpay/internal/services/feeconfig"
	"billpay/internal/services/hierarchy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// levelFee pairs one node of the settlement chain with its resolved fee.
// The chain is ordered merchant first, then organizations deepest to root.
type levelFee struct {
	ref hierarchy.AncestorRef
	fee feeconfig.ResolvedFee
}

// approvalEntries computes the CREDIT entries for an approval under the
// given policy. Amounts are rounded to the currency's minor unit; the
// result always satisfies the policy's zero-sum invariant or an error is
// returned.
func approvalEntries(event *models.TransactionEvent, chain []levelFee, policy Policy) ([]models.SettlementEntry, error) {
	var entries []models.SettlementEntry
	var err error

	switch policy {
	case PolicyFeeOnNet:
		entries, err = feeOnNetEntries(event, chain)
	case PolicyMarginOnGross:
		entries, err = marginOnGrossEntries(event, chain)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}
	if err != nil {
		return nil, err
	}

	if err := validateZeroSum(event.Amount, entries, policy); err != nil {
		return entries, err
	}
	return entries, nil
}

// feeOnNetEntries cascades the amount down the chain: each level charges
// its fee on what the level below passed up, and forwards the remainder.
func feeOnNetEntries(event *models.TransactionEvent, chain []levelFee) ([]models.SettlementEntry, error) {
	entries := make([]models.SettlementEntry, 0, len(chain))
	incoming := roundMinor(event.Amount, event.Currency)

	for _, level := range chain {
		fee, err := feeconfig.ComputeFee(level.fee, incoming)
		if err != nil {
			return nil, err
		}
		fee = roundMinor(fee, event.Currency)
		if fee.GreaterThan(incoming) {
			return nil, fmt.Errorf("%w: %s at %s on %s", ErrFeeExceedsAmount, fee, level.ref.EntityPath, incoming)
		}
		net := incoming.Sub(fee)

		entries = append(entries, newEntry(event, level.ref, models.EntryTypeCredit, incoming, fee, net, level.fee.FeeRate))
		incoming = net
	}
	return entries, nil
}

// marginOnGrossEntries charges every level's fee on the gross amount. The
// merchant pays its own fee; each organization earns the spread between
// the fee of the entity below it and its own. Non-positive spreads are
// skipped. Whatever the root-most organization's own fee leaves over,
// including any rounding remainder, lands on the platform residual entry.
func marginOnGrossEntries(event *models.TransactionEvent, chain []levelFee) ([]models.SettlementEntry, error) {
	gross := roundMinor(event.Amount, event.Currency)

	feeAmounts := make([]decimal.Decimal, len(chain))
	for i, level := range chain {
		fee, err := feeconfig.ComputeFee(level.fee, gross)
		if err != nil {
			return nil, err
		}
		feeAmounts[i] = roundMinor(fee, event.Currency)
	}

	merchantFee := feeAmounts[0]
	if merchantFee.GreaterThan(gross) {
		return nil, fmt.Errorf("%w: %s at %s on %s", ErrFeeExceedsAmount, merchantFee, chain[0].ref.EntityPath, gross)
	}
	entries := []models.SettlementEntry{
		newEntry(event, chain[0].ref, models.EntryTypeCredit, gross, merchantFee, gross.Sub(merchantFee), chain[0].fee.FeeRate),
	}

	distributed := decimal.Zero
	for i := 1; i < len(chain); i++ {
		margin := feeAmounts[i-1].Sub(feeAmounts[i])
		if !margin.IsPositive() {
			continue
		}
		rate := chain[i-1].fee.FeeRate.Sub(chain[i].fee.FeeRate)
		entries = append(entries, newEntry(event, chain[i].ref, models.EntryTypeCredit, margin, decimal.Zero, margin, rate))
		distributed = distributed.Add(margin)
	}

	residual := merchantFee.Sub(distributed)
	entries = append(entries, platformEntry(event, models.EntryTypeCredit, residual))
	return entries, nil
}

// mirrorEntries reverses a fully settled approval: one DEBIT per live
// original entry with every amount negated, fees copied rather than
// recomputed so the reversal is exact even if fee configs changed since.
func mirrorEntries(event *models.TransactionEvent, originals []models.SettlementEntry) []models.SettlementEntry {
	ordered := orderChain(originals)
	entries := make([]models.SettlementEntry, 0, len(ordered))
	for _, o := range ordered {
		e := newEntry(event, hierarchy.AncestorRef{
			EntityType: o.EntityType,
			EntityPath: o.EntityPath,
		}, models.EntryTypeDebit, o.Amount.Neg(), o.FeeAmount.Neg(), o.NetAmount.Neg(), o.FeeRate)
		e.EntityID = o.EntityID
		entries = append(entries, e)
	}
	return entries
}

// proportionalEntries reverses the fraction cancelAmount/originalGross of
// each live original entry. Per-entry fees scale by the ratio and round to
// the minor unit; the chain is then re-balanced per policy so the rounding
// remainder never breaks the zero-sum invariant.
func proportionalEntries(event *models.TransactionEvent, originals []models.SettlementEntry, policy Policy) ([]models.SettlementEntry, error) {
	ordered := orderChain(originals)
	if len(ordered) == 0 {
		return nil, ErrOriginalNotSettled
	}

	gross := ordered[0].Amount
	if !gross.IsPositive() {
		return nil, fmt.Errorf("original gross amount %s is not positive", gross)
	}
	ratio := event.Amount.Div(gross)

	cancelGross := roundMinor(event.Amount, event.Currency)

	switch policy {
	case PolicyFeeOnNet:
		entries := make([]models.SettlementEntry, 0, len(ordered))
		incoming := cancelGross
		for _, o := range ordered {
			fee := roundMinor(o.FeeAmount.Mul(ratio), event.Currency)
			net := incoming.Sub(fee)
			e := newEntry(event, hierarchy.AncestorRef{
				EntityType: o.EntityType,
				EntityPath: o.EntityPath,
			}, models.EntryTypeDebit, incoming.Neg(), fee.Neg(), net.Neg(), o.FeeRate)
			e.EntityID = o.EntityID
			entries = append(entries, e)
			incoming = net
		}
		return entries, nil

	case PolicyMarginOnGross:
		merchantFee := roundMinor(ordered[0].FeeAmount.Mul(ratio), event.Currency)
		entries := []models.SettlementEntry{}
		m := newEntry(event, hierarchy.AncestorRef{
			EntityType: ordered[0].EntityType,
			EntityPath: ordered[0].EntityPath,
		}, models.EntryTypeDebit, cancelGross.Neg(), merchantFee.Neg(), cancelGross.Sub(merchantFee).Neg(), ordered[0].FeeRate)
		m.EntityID = ordered[0].EntityID
		entries = append(entries, m)

		distributed := decimal.Zero
		for _, o := range ordered[1:] {
			if o.EntityPath == models.RootEntityPath && o.EntityID == nil {
				continue
			}
			margin := roundMinor(o.Amount.Mul(ratio), event.Currency)
			e := newEntry(event, hierarchy.AncestorRef{
				EntityType: o.EntityType,
				EntityPath: o.EntityPath,
			}, models.EntryTypeDebit, margin.Neg(), decimal.Zero, margin.Neg(), o.FeeRate)
			e.EntityID = o.EntityID
			entries = append(entries, e)
			distributed = distributed.Add(margin)
		}

		residual := merchantFee.Sub(distributed)
		entries = append(entries, platformEntry(event, models.EntryTypeDebit, residual.Neg()))
		return entries, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}
}

// validateZeroSum checks the policy's conservation invariant over a full
// entry set. gross carries the event's sign: positive for approvals,
// negative for reversals.
func validateZeroSum(gross decimal.Decimal, entries []models.SettlementEntry, policy Policy) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: no entries", ErrZeroSumViolation)
	}
	for _, e := range entries {
		if !e.NetAmount.Equal(e.Amount.Sub(e.FeeAmount)) {
			return fmt.Errorf("%w: entry %s net %s != amount %s - fee %s",
				ErrZeroSumViolation, e.EntityPath, e.NetAmount, e.Amount, e.FeeAmount)
		}
	}

	switch policy {
	case PolicyFeeOnNet:
		if !entries[0].Amount.Equal(gross) {
			return fmt.Errorf("%w: first entry amount %s != gross %s", ErrZeroSumViolation, entries[0].Amount, gross)
		}
		for i := 1; i < len(entries); i++ {
			if !entries[i].Amount.Equal(entries[i-1].NetAmount) {
				return fmt.Errorf("%w: entry %s amount %s != upstream net %s",
					ErrZeroSumViolation, entries[i].EntityPath, entries[i].Amount, entries[i-1].NetAmount)
			}
		}
	case PolicyMarginOnGross:
		if !entries[0].Amount.Equal(gross) {
			return fmt.Errorf("%w: merchant entry amount %s != gross %s", ErrZeroSumViolation, entries[0].Amount, gross)
		}
		sum := decimal.Zero
		for _, e := range entries[1:] {
			sum = sum.Add(e.Amount)
		}
		if !sum.Equal(entries[0].FeeAmount) {
			return fmt.Errorf("%w: distributed margins %s != merchant fee %s",
				ErrZeroSumViolation, sum, entries[0].FeeAmount)
		}
	}
	return nil
}

// counterBearing keeps the entries whose amounts were registered on batch
// counters. FAILED rows are audit records written outside the settlement
// transaction; CANCELLED rows had their contribution reversed when they
// were voided.
func counterBearing(entries []models.SettlementEntry) []models.SettlementEntry {
	out := entries[:0:0]
	for _, e := range entries {
		if e.Status == models.SettlementStatusFailed || e.Status == models.SettlementStatusCancelled {
			continue
		}
		out = append(out, e)
	}
	return out
}

// orderChain sorts live entries back into waterfall order: merchant first,
// then organizations deepest to root, the platform residual last.
func orderChain(entries []models.SettlementEntry) []models.SettlementEntry {
	out := make([]models.SettlementEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := chainDepth(out[i]), chainDepth(out[j])
		if di != dj {
			return di > dj
		}
		return out[i].EntityType == models.EntityTypeMerchant
	})
	return out
}

func chainDepth(e models.SettlementEntry) int {
	if e.EntityPath == models.RootEntityPath && e.EntityID == nil {
		return 0
	}
	return len(models.PathSegments(e.EntityPath))
}

func newEntry(event *models.TransactionEvent, ref hierarchy.AncestorRef, entryType models.EntryType, amount, fee, net, rate decimal.Decimal) models.SettlementEntry {
	now := time.Now()
	e := models.SettlementEntry{
		ID:                 uuid.New(),
		TransactionEventID: event.ID,
		TransactionID:      event.TransactionID,
		MerchantID:         event.MerchantID,
		EntityType:         ref.EntityType,
		EntityPath:         ref.EntityPath,
		EntryType:          entryType,
		Amount:             amount,
		FeeAmount:          fee,
		NetAmount:          net,
		FeeRate:            rate,
		Currency:           event.Currency,
		Status:             models.SettlementStatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if ref.EntityID != uuid.Nil {
		id := ref.EntityID
		e.EntityID = &id
	}
	return e
}

// platformEntry is the residual settlement of the platform root. It has no
// organization row, so EntityID stays nil.
func platformEntry(event *models.TransactionEvent, entryType models.EntryType, amount decimal.Decimal) models.SettlementEntry {
	now := time.Now()
	return models.SettlementEntry{
		ID:                 uuid.New(),
		TransactionEventID: event.ID,
		TransactionID:      event.TransactionID,
		MerchantID:         event.MerchantID,
		EntityType:         "PLATFORM",
		EntityPath:         models.RootEntityPath,
		EntryType:          entryType,
		Amount:             amount,
		FeeAmount:          decimal.Zero,
		NetAmount:          amount,
		FeeRate:            decimal.Zero,
		Currency:           event.Currency,
		Status:             models.SettlementStatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}
