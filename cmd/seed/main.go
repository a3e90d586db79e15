// Package main seeds a development hierarchy: a distributor/agency chain,
// a merchant under it, a card payment method and percentage fee configs
// for every level.
package main

import (
	"log"
	"time"

	"billpay/internal/config"
	"billpay/internal/models"
	"billpay/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func main() {
	config.LoadEnv()
	repositories.InitDB()

	defer func() {
		if repositories.DB != nil {
			if sqlDB, err := repositories.DB.DB(); err == nil {
				sqlDB.Close()
			}
		}
	}()

	var existing models.Organization
	if err := repositories.DB.Where("org_code = ?", "dist_001").First(&existing).Error; err == nil {
		log.Println("seed data already present")
		return
	}

	dist := org("dist_001", "Seed Distributor", models.OrgTypeDistributor, "master.dist_001", 2)
	agcy := org("agcy_001", "Seed Agency", models.OrgTypeAgency, "master.dist_001.agcy_001", 3)

	merchant := models.Merchant{
		ID:             uuid.New(),
		MerchantCode:   "mcht_001",
		Name:           "Seed Merchant",
		OrganizationID: agcy.ID,
		OrgPath:        agcy.Path,
		Status:         models.MerchantStatusActive,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	card := models.PaymentMethod{
		ID:         uuid.New(),
		MethodCode: "CARD",
		Name:       "Card",
	}

	now := time.Now()
	configs := []models.FeeConfiguration{
		feeConfig(merchant.ID, models.EntityTypeMerchant, merchant.OrgPath, card.ID, "0.02", now),
		feeConfig(agcy.ID, string(agcy.OrgType), agcy.Path, card.ID, "0.01", now),
		feeConfig(dist.ID, string(dist.OrgType), dist.Path, card.ID, "0.005", now),
	}

	if err := repositories.DB.Create(&dist).Error; err != nil {
		log.Fatalf("failed to seed distributor: %v", err)
	}
	if err := repositories.DB.Create(&agcy).Error; err != nil {
		log.Fatalf("failed to seed agency: %v", err)
	}
	if err := repositories.DB.Create(&merchant).Error; err != nil {
		log.Fatalf("failed to seed merchant: %v", err)
	}
	if err := repositories.DB.Create(&card).Error; err != nil {
		log.Fatalf("failed to seed payment method: %v", err)
	}
	if err := repositories.DB.Create(&configs).Error; err != nil {
		log.Fatalf("failed to seed fee configs: %v", err)
	}

	log.Println("seed complete")
}

func org(code, name string, orgType models.OrganizationType, path string, level int) models.Organization {
	return models.Organization{
		ID:        uuid.New(),
		OrgCode:   code,
		Name:      name,
		OrgType:   orgType,
		Path:      path,
		Level:     level,
		Status:    models.OrgStatusActive,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func feeConfig(entityID uuid.UUID, entityType, path string, methodID uuid.UUID, rate string, from time.Time) models.FeeConfiguration {
	return models.FeeConfiguration{
		ID:              uuid.New(),
		EntityID:        entityID,
		EntityType:      entityType,
		EntityPath:      path,
		PaymentMethodID: methodID,
		FeeType:         models.FeeTypePercentage,
		FeeRate:         decimal.RequireFromString(rate),
		Priority:        1,
		ValidFrom:       from,
		Status:          models.FeeConfigStatusActive,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
}
