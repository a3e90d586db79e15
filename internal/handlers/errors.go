// Package handlers exposes the HTTP surface: event ingestion, settlement
// queries and reports, fee configuration management and merchant moves.
package handlers

import (
	"errors"
	"log"

	"billpay/internal/services/batch"
	"billpay/internal/services/feeconfig"
	"billpay/internal/services/hierarchy"
	"billpay/internal/services/ledger"
	"billpay/internal/services/report"
	"billpay/internal/services/settlement"
	"billpay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// mapError translates service errors into the response envelope. Unknown
// errors are logged and surfaced as a generic 500.
func mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ledger.ErrMerchantNotFound),
		errors.Is(err, hierarchy.ErrMerchantNotFound),
		errors.Is(err, report.ErrMerchantNotFound):
		return utils.NotFound(c, "merchant not found")
	case errors.Is(err, hierarchy.ErrOrganizationNotFound),
		errors.Is(err, report.ErrOrganizationNotFound):
		return utils.NotFound(c, "organization not found")
	case errors.Is(err, ledger.ErrEventNotFound),
		errors.Is(err, settlement.ErrEventNotFound):
		return utils.NotFound(c, "transaction event not found")
	case errors.Is(err, batch.ErrBatchNotFound):
		return utils.NotFound(c, "settlement batch not found")
	case errors.Is(err, feeconfig.ErrConfigNotFound):
		return utils.NotFound(c, "fee configuration not found")
	case errors.Is(err, feeconfig.ErrPaymentMethodNotFound):
		return utils.NotFound(c, "payment method not found")

	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidEventType),
		errors.Is(err, ledger.ErrCancelExceedsOriginal),
		errors.Is(err, ledger.ErrApprovalNotFound),
		errors.Is(err, hierarchy.ErrSameOrganization):
		return utils.BadRequest(c, err.Error())

	case errors.Is(err, feeconfig.ErrNoFeeConfig),
		errors.Is(err, settlement.ErrFeeConfigMissing):
		return utils.Unprocessable(c, "FEE_CONFIG_MISSING", err.Error())
	case errors.Is(err, feeconfig.ErrConfigInvalid):
		return utils.Unprocessable(c, "FEE_CONFIG_INVALID", err.Error())
	case errors.Is(err, settlement.ErrZeroSumViolation):
		return utils.Unprocessable(c, "ZERO_SUM_VIOLATION", err.Error())
	case errors.Is(err, settlement.ErrFeeExceedsAmount):
		return utils.Unprocessable(c, "FEE_EXCEEDS_AMOUNT", err.Error())
	case errors.Is(err, settlement.ErrOriginalNotSettled):
		return utils.Unprocessable(c, "ORIGINAL_NOT_SETTLED", err.Error())

	case errors.Is(err, batch.ErrBatchNotProcessing),
		errors.Is(err, batch.ErrBatchNotCompleted),
		errors.Is(err, batch.ErrAlreadyApproved):
		return utils.Conflict(c, "BATCH_STATE_CONFLICT", err.Error())
	case errors.Is(err, batch.ErrCounterContention):
		return utils.Conflict(c, "CONCURRENCY_CONFLICT", err.Error())

	case errors.Is(err, hierarchy.ErrInconsistentPath):
		log.Printf("hierarchy corruption: %v", err)
		return utils.InternalError(c, "HIERARCHY_CORRUPT", "hierarchy data is inconsistent")
	}

	log.Printf("unhandled error: %v", err)
	return utils.InternalError(c, "INTERNAL_ERROR", "internal server error")
}
