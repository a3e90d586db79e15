package settlement

import "errors"

var (
	// ErrZeroSumViolation means the computed entries do not conserve the
	// event amount. The entries are persisted FAILED for audit.
	ErrZeroSumViolation = errors.New("settlement entries violate zero-sum invariant")

	// ErrOriginalNotSettled means a cancellation arrived for an approval
	// that has no live settlement entries to reverse.
	ErrOriginalNotSettled = errors.New("original approval has no live settlement entries")

	// ErrFeeExceedsAmount means a level's resolved fee is larger than the
	// amount it applies to. Fees never exceed the settled amount.
	ErrFeeExceedsAmount = errors.New("fee exceeds settled amount")

	ErrEventNotFound    = errors.New("transaction event not found")
	ErrUnknownPolicy    = errors.New("unknown settlement waterfall policy")
	ErrFeeConfigMissing = errors.New("no fee configuration for entity")
)
