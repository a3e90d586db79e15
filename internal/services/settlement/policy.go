package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Policy selects how fees are distributed up the hierarchy.
type Policy string

const (
	// PolicyFeeOnNet charges each level's fee on the net amount passed up
	// from the level below. The merchant level sees the gross amount.
	PolicyFeeOnNet Policy = "fee_on_net"

	// PolicyMarginOnGross charges every level's rate on the gross amount;
	// each organization earns the spread between its child's fee and its
	// own, and the platform keeps the root-most residual.
	PolicyMarginOnGross Policy = "margin_on_gross"
)

// ParsePolicy validates a policy name from configuration.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyFeeOnNet, PolicyMarginOnGross:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Zero-decimal currencies settle in whole units.
var minorUnits = map[string]int32{
	"KRW": 0,
	"JPY": 0,
	"VND": 0,
}

// MinorUnits returns the number of decimal places the currency settles in.
func MinorUnits(currency string) int32 {
	if n, ok := minorUnits[currency]; ok {
		return n
	}
	return 2
}

// roundMinor rounds half-up (half away from zero) to the currency's minor
// unit. Every persisted monetary amount goes through this exactly once.
func roundMinor(amount decimal.Decimal, currency string) decimal.Decimal {
	return amount.Round(MinorUnits(currency))
}
