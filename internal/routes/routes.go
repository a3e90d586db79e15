// Package routes wires repositories, services and handlers onto the fiber
// application.
package routes

import (
	"log"
	"time"

	"billpay/internal/config"
	"billpay/internal/handlers"
	"billpay/internal/middleware"
	"billpay/internal/repositories"
	"billpay/internal/repositories/cache"
	"billpay/internal/services/batch"
	"billpay/internal/services/feeconfig"
	"billpay/internal/services/hierarchy"
	"billpay/internal/services/ledger"
	"billpay/internal/services/report"
	"billpay/internal/services/settlement"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App) {
	// Repositories
	orgRepo := repositories.NewOrganizationRepository(repositories.DB)
	merchantRepo := repositories.NewMerchantRepository(repositories.DB)
	feeRepo := repositories.NewFeeConfigRepository(repositories.DB)
	eventRepo := repositories.NewTransactionEventRepository(repositories.DB)
	entryRepo := repositories.NewSettlementEntryRepository(repositories.DB)
	batchRepo := repositories.NewBatchRepository(repositories.DB)

	policy, err := settlement.ParsePolicy(config.WaterfallPolicy())
	if err != nil {
		log.Fatalf("invalid settlement waterfall policy: %v", err)
	}

	lockTTL := config.GetDurationEnv("SETTLEMENT_LOCK_TTL", 10*time.Second)
	locks := cache.NewLockManager(repositories.CacheService.Client(), lockTTL)

	// Services
	hierarchySvc := hierarchy.NewService(merchantRepo, orgRepo)
	feeSvc := feeconfig.NewService(feeRepo)
	batchSvc := batch.NewService(batchRepo, entryRepo)
	settlementSvc := settlement.NewService(
		repositories.DB,
		entryRepo,
		eventRepo,
		batchSvc,
		hierarchySvc,
		feeSvc,
		locks,
		policy,
		config.FeeMissingPolicy(),
	)
	ledgerSvc := ledger.NewService(eventRepo, merchantRepo, hierarchySvc, settlementSvc)
	reportSvc := report.NewService(entryRepo, orgRepo, merchantRepo, repositories.CacheService, policy)

	// Handlers
	eventHandler := handlers.NewEventHandler(ledgerSvc)
	settlementHandler := handlers.NewSettlementHandler(settlementSvc, batchSvc, reportSvc)
	feeHandler := handlers.NewFeeConfigHandler(feeSvc)
	merchantHandler := handlers.NewMerchantHandler(hierarchySvc)

	app.Get("/health", handlers.HealthCheck)

	v1 := app.Group("/v1", middleware.Auth)

	events := v1.Group("/events")
	events.Post("/", middleware.RequireAdmin, eventHandler.Ingest)
	events.Get("/:id", eventHandler.GetEvent)
	v1.Get("/transactions/:transactionId/events", eventHandler.ListTransactionEvents)

	settlements := v1.Group("/settlements")
	settlements.Get("/", settlementHandler.List)
	settlements.Get("/summary", settlementHandler.Summary)
	settlements.Post("/resettle", middleware.RequireAdmin, settlementHandler.Resettle)
	settlements.Get("/batch/:date", settlementHandler.BatchByDate)
	settlements.Get("/batches", settlementHandler.ListBatches)
	settlements.Post("/batches", middleware.RequireAdmin, settlementHandler.CloseBatch)
	settlements.Post("/batches/:id/approve", middleware.RequireAdmin, settlementHandler.ApproveBatch)
	settlements.Post("/batches/:id/fail", middleware.RequireAdmin, settlementHandler.FailBatch)
	settlements.Get("/event/:transactionEventId", settlementHandler.EntriesByEvent)
	settlements.Get("/by-organization", settlementHandler.ByOrganization)
	settlements.Get("/organization/:organizationId/details", settlementHandler.OrganizationDetail)
	settlements.Get("/merchant-daily", settlementHandler.MerchantDaily)
	settlements.Get("/merchant-daily/:date", settlementHandler.MerchantDailyDetail)
	settlements.Get("/merchant-statement/:merchantId", settlementHandler.MerchantStatement)
	settlements.Get("/org-daily", settlementHandler.OrgDaily)
	settlements.Get("/org-daily/:date", settlementHandler.OrgDailyDetail)
	settlements.Get("/org-statement/:orgId", settlementHandler.OrgStatement)

	merchants := v1.Group("/merchants")
	merchants.Get("/:merchantId/fee-configs", feeHandler.ListByMerchant)
	merchants.Post("/:merchantId/fee-configs", middleware.RequireAdmin, feeHandler.Create)
	merchants.Get("/:merchantId/fee-config-history", feeHandler.MerchantHistory)
	merchants.Post("/:merchantId/move", middleware.RequireAdmin, merchantHandler.Move)

	feeConfigs := v1.Group("/fee-configs")
	feeConfigs.Put("/:id", middleware.RequireAdmin, feeHandler.Update)
	feeConfigs.Post("/:id/activate", middleware.RequireAdmin, feeHandler.Activate)
	feeConfigs.Post("/:id/deactivate", middleware.RequireAdmin, feeHandler.Deactivate)
	feeConfigs.Get("/:id/history", feeHandler.History)
}
