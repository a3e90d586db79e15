package handlers

import (
	"context"

	"billpay/internal/middleware"
	"billpay/internal/services/feeconfig"
	"billpay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// FeeConfigHandler exposes fee configuration management and its audit
// journal.
type FeeConfigHandler struct {
	fees feeconfig.Service
}

func NewFeeConfigHandler(fees feeconfig.Service) *FeeConfigHandler {
	return &FeeConfigHandler{fees: fees}
}

func (h *FeeConfigHandler) ListByMerchant(c *fiber.Ctx) error {
	merchantID, err := uuid.Parse(c.Params("merchantId"))
	if err != nil {
		return utils.BadRequest(c, "invalid merchant id")
	}

	configs, err := h.fees.ListByEntity(c.Context(), merchantID)
	if err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, configs)
}

func (h *FeeConfigHandler) Create(c *fiber.Ctx) error {
	merchantID, err := uuid.Parse(c.Params("merchantId"))
	if err != nil {
		return utils.BadRequest(c, "invalid merchant id")
	}

	var req feeconfig.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	req.EntityID = merchantID
	if err := utils.ValidateStruct(req); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	cfg, err := h.fees.Create(c.Context(), req, actor(c))
	if err != nil {
		return mapError(c, err)
	}
	return utils.Created(c, cfg)
}

func (h *FeeConfigHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "invalid fee config id")
	}

	var req feeconfig.UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	cfg, err := h.fees.Update(c.Context(), id, req, actor(c))
	if err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, cfg)
}

func (h *FeeConfigHandler) Activate(c *fiber.Ctx) error {
	return h.transition(c, h.fees.Activate)
}

func (h *FeeConfigHandler) Deactivate(c *fiber.Ctx) error {
	return h.transition(c, h.fees.Deactivate)
}

func (h *FeeConfigHandler) History(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "invalid fee config id")
	}

	history, err := h.fees.History(c.Context(), id)
	if err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, history)
}

func (h *FeeConfigHandler) MerchantHistory(c *fiber.Ctx) error {
	merchantID, err := uuid.Parse(c.Params("merchantId"))
	if err != nil {
		return utils.BadRequest(c, "invalid merchant id")
	}

	history, err := h.fees.HistoryByEntity(c.Context(), merchantID)
	if err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, history)
}

func (h *FeeConfigHandler) transition(c *fiber.Ctx, fn func(ctx context.Context, id uuid.UUID, reason, actor string) error) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "invalid fee config id")
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return utils.BadRequest(c, "invalid request body")
	}

	if err := fn(c.Context(), id, req.Reason, actor(c)); err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, fiber.Map{"id": id})
}

// actor names the operator for the audit journal.
func actor(c *fiber.Ctx) string {
	if claims := middleware.Claims(c); claims != nil {
		return claims.UserID
	}
	return "system"
}
