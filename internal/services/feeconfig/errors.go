package feeconfig

import "errors"

// Service errors
var (
	ErrNoFeeConfig           = errors.New("no fee configuration found")
	ErrConfigNotFound        = errors.New("fee configuration not found")
	ErrConfigInvalid         = errors.New("invalid fee configuration")
	ErrPaymentMethodNotFound = errors.New("payment method not found")
)
