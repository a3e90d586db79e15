package handlers

import (
	"time"

	"billpay/internal/models"
	"billpay/internal/repositories"
	"billpay/internal/services/batch"
	"billpay/internal/services/report"
	"billpay/internal/services/settlement"
	"billpay/internal/utils"
	"billpay/internal/utils/dateutil"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// SettlementHandler exposes settlement entries, batches and reports.
type SettlementHandler struct {
	settlements settlement.Service
	batches     batch.Service
	reports     report.Service
}

func NewSettlementHandler(settlements settlement.Service, batches batch.Service, reports report.Service) *SettlementHandler {
	return &SettlementHandler{
		settlements: settlements,
		batches:     batches,
		reports:     reports,
	}
}

// List serves the filtered, paged settlement entry listing.
func (h *SettlementHandler) List(c *fiber.Ctx) error {
	page, size := utils.GetPageParams(c, defaultPageSize, maxPageSize)
	q := repositories.SettlementQuery{
		EntityType: c.Query("entityType"),
		Status:     models.SettlementStatus(c.Query("status")),
		PathPrefix: c.Query("pathPrefix"),
		SortBy:     c.Query("sortBy", "createdAt"),
		Direction:  c.Query("direction", "desc"),
		Page:       page,
		Size:       size,
	}

	if raw := c.Query("merchantId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return utils.BadRequest(c, "invalid merchantId")
		}
		q.MerchantID = &id
	}
	if raw := c.Query("startDate"); raw != "" {
		date, err := dateutil.ParseDate(raw)
		if err != nil {
			return utils.BadRequest(c, err.Error())
		}
		start, _ := dateutil.DayWindow(date)
		q.StartDate = &start
	}
	if raw := c.Query("endDate"); raw != "" {
		date, err := dateutil.ParseDate(raw)
		if err != nil {
			return utils.BadRequest(c, err.Error())
		}
		_, end := dateutil.DayWindow(date)
		q.EndDate = &end
	}

	entries, total, err := h.settlements.Query(c.Context(), q)
	if err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, utils.NewPage(entries, page, size, total))
}

func (h *SettlementHandler) Summary(c *fiber.Ctx) error {
	r, err := parseRange(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	summary, err := h.reports.Summary(c.Context(), r, c.Query("entityType"))
	if err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, summary)
}

// Resettle voids and regenerates the entries of one event.
func (h *SettlementHandler) Resettle(c *fiber.Ctx) error {
	var req struct {
		TransactionEventID uuid.UUID `json:"transactionEventId" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	entries, err := h.settlements.Resettle(c.Context(), req.TransactionEventID)
	if err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, entries)
}

// BatchByDate serves the settlement entries attached to the date's batch.
func (h *SettlementHandler) BatchByDate(c *fiber.Ctx) error {
	date, err := dateutil.ParseDate(c.Params("date"))
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	entries, err := h.batches.EntriesByDate(c.Context(), date)
	if err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, entries)
}

func (h *SettlementHandler) ListBatches(c *fiber.Ctx) error {
	page, size := utils.GetPageParams(c, defaultPageSize, maxPageSize)
	q := repositories.BatchQuery{
		Status: models.BatchStatus(c.Query("status")),
		Page:   page,
		Size:   size,
	}
	if raw := c.Query("startDate"); raw != "" {
		date, err := dateutil.ParseDate(raw)
		if err != nil {
			return utils.BadRequest(c, err.Error())
		}
		q.StartDate = &date
	}
	if raw := c.Query("endDate"); raw != "" {
		date, err := dateutil.ParseDate(raw)
		if err != nil {
			return utils.BadRequest(c, err.Error())
		}
		q.EndDate = &date
	}

	batches, total, err := h.batches.List(c.Context(), q)
	if err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, utils.NewPage(batches, page, size, total))
}

// CloseBatch runs close-of-day for a settlement date.
func (h *SettlementHandler) CloseBatch(c *fiber.Ctx) error {
	var req struct {
		Date string `json:"date" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.BadRequest(c, err.Error())
	}
	date, err := dateutil.ParseDate(req.Date)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	b, err := h.batches.CloseDate(c.Context(), date)
	if err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, b)
}

func (h *SettlementHandler) ApproveBatch(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "invalid batch id")
	}

	b, err := h.batches.Approve(c.Context(), id)
	if err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, b)
}

// FailBatch moves an open batch to FAILED, excluding it from approval.
func (h *SettlementHandler) FailBatch(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "invalid batch id")
	}

	b, err := h.batches.Fail(c.Context(), id)
	if err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, b)
}

// EntriesByEvent serves every settlement entry an event ever produced,
// voided and failed ones included.
func (h *SettlementHandler) EntriesByEvent(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("transactionEventId"))
	if err != nil {
		return utils.BadRequest(c, "invalid transaction event id")
	}

	entries, err := h.settlements.EntriesByEvent(c.Context(), id)
	if err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, entries)
}

func (h *SettlementHandler) ByOrganization(c *fiber.Ctx) error {
	r, err := parseRange(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	summaries, err := h.reports.ByOrganization(c.Context(), r,
		models.OrganizationType(c.Query("orgType")), c.Query("search"))
	if err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, summaries)
}

func (h *SettlementHandler) OrganizationDetail(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("organizationId"))
	if err != nil {
		return utils.BadRequest(c, "invalid organization id")
	}
	r, err := parseRange(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	detail, err := h.reports.OrganizationDetail(c.Context(), orgID, r)
	if err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, detail)
}

func (h *SettlementHandler) MerchantDaily(c *fiber.Ctx) error {
	r, err := parseRange(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	rows, err := h.reports.MerchantDaily(c.Context(), r)
	if err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, rows)
}

func (h *SettlementHandler) MerchantDailyDetail(c *fiber.Ctx) error {
	date, err := dateutil.ParseDate(c.Params("date"))
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	detail, err := h.reports.MerchantDailyDetail(c.Context(), date)
	if err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, detail)
}

func (h *SettlementHandler) MerchantStatement(c *fiber.Ctx) error {
	merchantID, err := uuid.Parse(c.Params("merchantId"))
	if err != nil {
		return utils.BadRequest(c, "invalid merchant id")
	}
	r, err := parseRange(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	statement, err := h.reports.MerchantStatement(c.Context(), merchantID, r)
	if err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, statement)
}

func (h *SettlementHandler) OrgDaily(c *fiber.Ctx) error {
	r, err := parseRange(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	rows, err := h.reports.OrgDaily(c.Context(), r)
	if err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, rows)
}

func (h *SettlementHandler) OrgDailyDetail(c *fiber.Ctx) error {
	date, err := dateutil.ParseDate(c.Params("date"))
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	detail, err := h.reports.OrgDailyDetail(c.Context(), date)
	if err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, detail)
}

func (h *SettlementHandler) OrgStatement(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("orgId"))
	if err != nil {
		return utils.BadRequest(c, "invalid organization id")
	}
	r, err := parseRange(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	statement, err := h.reports.OrgStatement(c.Context(), orgID, r)
	if err != nil {
		return mapError(c, err)
	}
	return utils.Success(c, statement)
}

// parseRange reads startDate/endDate query params, defaulting both to the
// current KST settlement date.
func parseRange(c *fiber.Ctx) (report.Range, error) {
	today := dateutil.SettlementDate(time.Now())
	r := report.Range{Start: today, End: today}

	if raw := c.Query("startDate"); raw != "" {
		date, err := dateutil.ParseDate(raw)
		if err != nil {
			return report.Range{}, err
		}
		r.Start = date
		r.End = date
	}
	if raw := c.Query("endDate"); raw != "" {
		date, err := dateutil.ParseDate(raw)
		if err != nil {
			return report.Range{}, err
		}
		r.End = date
	}
	return r, nil
}
