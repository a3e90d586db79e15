package hierarchy

import "errors"

// Service errors
var (
	ErrMerchantNotFound     = errors.New("merchant not found")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrInconsistentPath     = errors.New("inconsistent organization path")
	ErrSameOrganization     = errors.New("merchant already belongs to organization")
)
