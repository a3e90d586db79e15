package ledger

import "errors"

// Service errors
var (
	ErrInvalidAmount         = errors.New("invalid event amount")
	ErrInvalidEventType      = errors.New("invalid event type")
	ErrEventNotFound         = errors.New("transaction event not found")
	ErrMerchantNotFound      = errors.New("merchant not found")
	ErrApprovalNotFound      = errors.New("original approval event not found")
	ErrCancelExceedsOriginal = errors.New("cancellation amount exceeds original approval")
)
