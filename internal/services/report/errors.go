package report

import "errors"

var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrMerchantNotFound     = errors.New("merchant not found")
)
