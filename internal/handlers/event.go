package handlers

import (
	"billpay/internal/services/ledger"
	"billpay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// EventHandler exposes the transaction event ledger.
type EventHandler struct {
	ledger ledger.Service
}

func NewEventHandler(ledgerSvc ledger.Service) *EventHandler {
	return &EventHandler{ledger: ledgerSvc}
}

// Ingest records a transaction event and settles it in the same request.
func (h *EventHandler) Ingest(c *fiber.Ctx) error {
	var req ledger.IngestRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	result, err := h.ledger.Ingest(c.Context(), req)
	if err != nil {
		return mapError(c, err)
	}
	return utils.Created(c, result)
}

func (h *EventHandler) GetEvent(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "invalid event id")
	}

	event, err := h.ledger.GetByID(c.Context(), id)
	if err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, event)
}

func (h *EventHandler) ListTransactionEvents(c *fiber.Ctx) error {
	txID, err := uuid.Parse(c.Params("transactionId"))
	if err != nil {
		return utils.BadRequest(c, "invalid transaction id")
	}

	events, err := h.ledger.ListByTransaction(c.Context(), txID)
	if err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, events)
}
