package handlers

import (
	"billpay/internal/services/hierarchy"
	"billpay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// MerchantHandler exposes merchant hierarchy operations.
type MerchantHandler struct {
	hierarchy hierarchy.Service
}

func NewMerchantHandler(hierarchySvc hierarchy.Service) *MerchantHandler {
	return &MerchantHandler{hierarchy: hierarchySvc}
}

// Move re-parents a merchant under a new organization. The move is
// journaled so settlement attribution of past events stays correct.
func (h *MerchantHandler) Move(c *fiber.Ctx) error {
	merchantID, err := uuid.Parse(c.Params("merchantId"))
	if err != nil {
		return utils.BadRequest(c, "invalid merchant id")
	}

	var req hierarchy.MoveRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	if req.MovedBy == "" {
		req.MovedBy = actor(c)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	merchant, err := h.hierarchy.MoveMerchant(c.Context(), merchantID, req)
	if err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, merchant)
}
