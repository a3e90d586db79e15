package repositories

import "errors"

var (
	ErrOrganizationNotFound  = errors.New("organization not found")
	ErrMerchantNotFound      = errors.New("merchant not found")
	ErrFeeConfigNotFound     = errors.New("fee configuration not found")
	ErrEventNotFound         = errors.New("transaction event not found")
	ErrBatchNotFound         = errors.New("settlement batch not found")
	ErrPaymentMethodNotFound = errors.New("payment method not found")
)
