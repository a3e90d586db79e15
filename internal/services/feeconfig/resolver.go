package feeconfig

import (
	"fmt"
	"time"

	"billpay/internal/models"

	"github.com/shopspring/decimal"
)

// selectConfig picks the effective configuration at atTime from the
// candidate set: ACTIVE, validity window contains atTime, highest priority,
// ties broken by the most recent validFrom.
func selectConfig(configs []models.FeeConfiguration, atTime time.Time) *models.FeeConfiguration {
	var best *models.FeeConfiguration
	for i := range configs {
		cfg := &configs[i]
		if cfg.Status != models.FeeConfigStatusActive {
			continue
		}
		if atTime.Before(cfg.ValidFrom) {
			continue
		}
		if cfg.ValidUntil != nil && !atTime.Before(*cfg.ValidUntil) {
			continue
		}
		if best == nil ||
			cfg.Priority > best.Priority ||
			(cfg.Priority == best.Priority && cfg.ValidFrom.After(best.ValidFrom)) {
			best = cfg
		}
	}
	return best
}

// parseTiers validates and decodes a TIERED configuration. Boundaries must
// be strictly increasing with no overlap; anything else is a config error
// at resolution time, never silently ignored.
func parseTiers(tierConfig models.JSON) ([]Tier, error) {
	raw, ok := tierConfig["tiers"]
	if !ok {
		return nil, fmt.Errorf("%w: tier config missing \"tiers\"", ErrConfigInvalid)
	}
	list, ok := raw.([]interface{})
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("%w: \"tiers\" must be a non-empty list", ErrConfigInvalid)
	}

	tiers := make([]Tier, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: tier %d is not an object", ErrConfigInvalid, i)
		}
		minAmount, err := decimalField(entry, "minAmount")
		if err != nil {
			return nil, fmt.Errorf("%w: tier %d: %v", ErrConfigInvalid, i, err)
		}
		feeRate, err := decimalField(entry, "feeRate")
		if err != nil {
			return nil, fmt.Errorf("%w: tier %d: %v", ErrConfigInvalid, i, err)
		}
		if feeRate.IsNegative() || feeRate.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("%w: tier %d rate %s outside [0, 1]", ErrConfigInvalid, i, feeRate)
		}
		tiers = append(tiers, Tier{MinAmount: minAmount, FeeRate: feeRate})
	}

	for i := 1; i < len(tiers); i++ {
		if !tiers[i].MinAmount.GreaterThan(tiers[i-1].MinAmount) {
			return nil, fmt.Errorf("%w: tier boundaries must be strictly increasing", ErrConfigInvalid)
		}
	}
	return tiers, nil
}

func decimalField(entry map[string]interface{}, key string) (decimal.Decimal, error) {
	raw, ok := entry[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("missing %q", key)
	}
	switch v := raw.(type) {
	case string:
		return decimal.NewFromString(v)
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	default:
		return decimal.Zero, fmt.Errorf("%q must be a number or numeric string", key)
	}
}

// ComputeFee applies a resolved fee to an amount. Percentage and tiered
// fees are clamped to [MinFee, MaxFee] when set. The result is unrounded;
// the settlement engine applies the currency rounding policy.
func ComputeFee(fee ResolvedFee, amount decimal.Decimal) (decimal.Decimal, error) {
	var computed decimal.Decimal

	switch fee.FeeType {
	case models.FeeTypePercentage:
		computed = amount.Mul(fee.FeeRate)
	case models.FeeTypeFixed:
		if fee.FixedFee == nil {
			return decimal.Zero, fmt.Errorf("%w: FIXED fee without fixedFee", ErrConfigInvalid)
		}
		return *fee.FixedFee, nil
	case models.FeeTypeTiered:
		if len(fee.Tiers) == 0 {
			return decimal.Zero, fmt.Errorf("%w: TIERED fee without tiers", ErrConfigInvalid)
		}
		rate := fee.Tiers[0].FeeRate
		for _, tier := range fee.Tiers {
			if amount.GreaterThanOrEqual(tier.MinAmount) {
				rate = tier.FeeRate
			}
		}
		computed = amount.Mul(rate)
	default:
		return decimal.Zero, fmt.Errorf("%w: unknown fee type %q", ErrConfigInvalid, fee.FeeType)
	}

	if fee.MinFee != nil && computed.LessThan(*fee.MinFee) {
		computed = *fee.MinFee
	}
	if fee.MaxFee != nil && computed.GreaterThan(*fee.MaxFee) {
		computed = *fee.MaxFee
	}
	return computed, nil
}
