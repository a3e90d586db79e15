// Package feeconfig owns fee configurations: versioned, prioritized rules
// with validity windows, an immutable audit journal, and the point-in-time
// resolution the settlement engine depends on.
package feeconfig

import (
	"context"
	"errors"
	"fmt"
	"time"

	"billpay/internal/models"
	"billpay/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service resolves and manages fee configurations.
type Service interface {
	// Resolve returns the effective fee for the entity + payment method at
	// atTime, or ErrNoFeeConfig.
	Resolve(ctx context.Context, entityID, paymentMethodID uuid.UUID, atTime time.Time) (ResolvedFee, error)

	Create(ctx context.Context, req CreateRequest, actor string) (*models.FeeConfiguration, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateRequest, actor string) (*models.FeeConfiguration, error)
	Activate(ctx context.Context, id uuid.UUID, reason, actor string) error
	Deactivate(ctx context.Context, id uuid.UUID, reason, actor string) error
	ListByEntity(ctx context.Context, entityID uuid.UUID) ([]models.FeeConfiguration, error)
	History(ctx context.Context, feeConfigID uuid.UUID) ([]models.FeeConfigHistory, error)
	HistoryByEntity(ctx context.Context, entityID uuid.UUID) ([]models.FeeConfigHistory, error)
}

type service struct {
	repo repositories.FeeConfigRepository
}

// NewService creates a new fee configuration service.
func NewService(repo repositories.FeeConfigRepository) Service {
	if repo == nil {
		panic("fee config repository is required")
	}
	return &service{repo: repo}
}

func (s *service) Resolve(ctx context.Context, entityID, paymentMethodID uuid.UUID, atTime time.Time) (ResolvedFee, error) {
	configs, err := s.repo.FindForEntity(entityID, paymentMethodID)
	if err != nil {
		return ResolvedFee{}, fmt.Errorf("failed to load fee configurations: %w", err)
	}

	cfg := selectConfig(configs, atTime)
	if cfg == nil {
		return ResolvedFee{}, fmt.Errorf("%w: entity=%s paymentMethod=%s at=%s",
			ErrNoFeeConfig, entityID, paymentMethodID, atTime.Format(time.RFC3339))
	}

	resolved := ResolvedFee{
		ConfigID: cfg.ID,
		FeeType:  cfg.FeeType,
		FeeRate:  cfg.FeeRate,
		FixedFee: cfg.FixedFee,
		MinFee:   cfg.MinFee,
		MaxFee:   cfg.MaxFee,
	}

	if cfg.FeeType == models.FeeTypeTiered {
		tiers, err := parseTiers(cfg.TierConfig)
		if err != nil {
			return ResolvedFee{}, err
		}
		resolved.Tiers = tiers
	}

	return resolved, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest, actor string) (*models.FeeConfiguration, error) {
	feeRate, err := decimal.NewFromString(req.FeeRate)
	if err != nil {
		return nil, fmt.Errorf("%w: bad feeRate: %v", ErrConfigInvalid, err)
	}
	if err := validateRate(models.FeeType(req.FeeType), feeRate); err != nil {
		return nil, err
	}

	cfg := &models.FeeConfiguration{
		ID:              uuid.New(),
		EntityID:        req.EntityID,
		EntityType:      req.EntityType,
		PaymentMethodID: req.PaymentMethodID,
		FeeType:         models.FeeType(req.FeeType),
		FeeRate:         feeRate,
		TierConfig:      req.TierConfig,
		Priority:        req.Priority,
		ValidFrom:       req.ValidFrom,
		ValidUntil:      req.ValidUntil,
		Status:          models.FeeConfigStatusActive,
	}

	if cfg.FeeType == models.FeeTypeTiered {
		if _, err := parseTiers(cfg.TierConfig); err != nil {
			return nil, err
		}
	}
	if cfg.FixedFee, err = parseOptionalDecimal(req.FixedFee); err != nil {
		return nil, fmt.Errorf("%w: bad fixedFee: %v", ErrConfigInvalid, err)
	}
	if cfg.FeeType == models.FeeTypeFixed && cfg.FixedFee == nil {
		return nil, fmt.Errorf("%w: FIXED fee requires fixedFee", ErrConfigInvalid)
	}
	if cfg.MinFee, err = parseOptionalDecimal(req.MinFee); err != nil {
		return nil, fmt.Errorf("%w: bad minFee: %v", ErrConfigInvalid, err)
	}
	if cfg.MaxFee, err = parseOptionalDecimal(req.MaxFee); err != nil {
		return nil, fmt.Errorf("%w: bad maxFee: %v", ErrConfigInvalid, err)
	}
	if cfg.MinFee != nil && cfg.MaxFee != nil && cfg.MinFee.GreaterThan(*cfg.MaxFee) {
		return nil, fmt.Errorf("%w: minFee exceeds maxFee", ErrConfigInvalid)
	}

	history := &models.FeeConfigHistory{
		ID:          uuid.New(),
		FeeConfigID: cfg.ID,
		EntityID:    cfg.EntityID,
		Action:      models.FeeConfigActionCreate,
		NewStatus:   cfg.Status,
		NewRate:     cfg.FeeRate,
		NewValue:    configSnapshot(cfg),
		Reason:      req.Reason,
		ChangedBy:   actor,
	}

	if err := s.repo.Create(cfg, history); err != nil {
		return nil, fmt.Errorf("failed to create fee configuration: %w", err)
	}
	return cfg, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest, actor string) (*models.FeeConfiguration, error) {
	cfg, err := s.getConfig(id)
	if err != nil {
		return nil, err
	}

	oldRate := cfg.FeeRate
	oldStatus := cfg.Status
	oldValue := configSnapshot(cfg)

	if req.FeeRate != nil {
		rate, err := decimal.NewFromString(*req.FeeRate)
		if err != nil {
			return nil, fmt.Errorf("%w: bad feeRate: %v", ErrConfigInvalid, err)
		}
		if err := validateRate(cfg.FeeType, rate); err != nil {
			return nil, err
		}
		cfg.FeeRate = rate
	}
	if req.FixedFee != nil {
		fixed, err := parseOptionalDecimal(req.FixedFee)
		if err != nil {
			return nil, fmt.Errorf("%w: bad fixedFee: %v", ErrConfigInvalid, err)
		}
		cfg.FixedFee = fixed
	}
	if req.TierConfig != nil {
		if _, err := parseTiers(req.TierConfig); err != nil {
			return nil, err
		}
		cfg.TierConfig = req.TierConfig
	}
	if req.MinFee != nil {
		if cfg.MinFee, err = parseOptionalDecimal(req.MinFee); err != nil {
			return nil, fmt.Errorf("%w: bad minFee: %v", ErrConfigInvalid, err)
		}
	}
	if req.MaxFee != nil {
		if cfg.MaxFee, err = parseOptionalDecimal(req.MaxFee); err != nil {
			return nil, fmt.Errorf("%w: bad maxFee: %v", ErrConfigInvalid, err)
		}
	}
	if req.Priority != nil {
		cfg.Priority = *req.Priority
	}
	if req.ValidFrom != nil {
		cfg.ValidFrom = *req.ValidFrom
	}
	if req.ValidUntil != nil {
		cfg.ValidUntil = req.ValidUntil
	}

	history := &models.FeeConfigHistory{
		ID:          uuid.New(),
		FeeConfigID: cfg.ID,
		EntityID:    cfg.EntityID,
		Action:      models.FeeConfigActionUpdate,
		OldStatus:   &oldStatus,
		NewStatus:   cfg.Status,
		OldRate:     &oldRate,
		NewRate:     cfg.FeeRate,
		OldValue:    oldValue,
		NewValue:    configSnapshot(cfg),
		Reason:      req.Reason,
		ChangedBy:   actor,
	}

	if err := s.repo.Update(cfg, history); err != nil {
		return nil, fmt.Errorf("failed to update fee configuration: %w", err)
	}
	return cfg, nil
}

func (s *service) Activate(ctx context.Context, id uuid.UUID, reason, actor string) error {
	return s.transition(id, models.FeeConfigStatusActive, models.FeeConfigActionActivate, reason, actor)
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID, reason, actor string) error {
	return s.transition(id, models.FeeConfigStatusInactive, models.FeeConfigActionDeactivate, reason, actor)
}

func (s *service) transition(id uuid.UUID, to models.FeeConfigStatus, action, reason, actor string) error {
	cfg, err := s.getConfig(id)
	if err != nil {
		return err
	}

	oldStatus := cfg.Status
	cfg.Status = to

	history := &models.FeeConfigHistory{
		ID:          uuid.New(),
		FeeConfigID: cfg.ID,
		EntityID:    cfg.EntityID,
		Action:      action,
		OldStatus:   &oldStatus,
		NewStatus:   cfg.Status,
		OldRate:     &cfg.FeeRate,
		NewRate:     cfg.FeeRate,
		Reason:      reason,
		ChangedBy:   actor,
	}

	if err := s.repo.Update(cfg, history); err != nil {
		return fmt.Errorf("failed to %s fee configuration: %w", action, err)
	}
	return nil
}

func (s *service) ListByEntity(ctx context.Context, entityID uuid.UUID) ([]models.FeeConfiguration, error) {
	return s.repo.ListByEntity(entityID)
}

func (s *service) History(ctx context.Context, feeConfigID uuid.UUID) ([]models.FeeConfigHistory, error) {
	return s.repo.HistoryByConfig(feeConfigID)
}

func (s *service) HistoryByEntity(ctx context.Context, entityID uuid.UUID) ([]models.FeeConfigHistory, error) {
	return s.repo.HistoryByEntity(entityID)
}

func (s *service) getConfig(id uuid.UUID) (*models.FeeConfiguration, error) {
	cfg, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrFeeConfigNotFound) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to load fee configuration: %w", err)
	}
	return cfg, nil
}

func validateRate(feeType models.FeeType, rate decimal.Decimal) error {
	if rate.IsNegative() {
		return fmt.Errorf("%w: negative fee rate", ErrConfigInvalid)
	}
	if feeType == models.FeeTypePercentage && rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: percentage rate above 100%%", ErrConfigInvalid)
	}
	return nil
}

func parseOptionalDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func configSnapshot(cfg *models.FeeConfiguration) models.JSON {
	snapshot := models.JSON{
		"feeType":   string(cfg.FeeType),
		"feeRate":   cfg.FeeRate.String(),
		"priority":  cfg.Priority,
		"status":    string(cfg.Status),
		"validFrom": cfg.ValidFrom.Format(time.RFC3339),
	}
	if cfg.ValidUntil != nil {
		snapshot["validUntil"] = cfg.ValidUntil.Format(time.RFC3339)
	}
	if cfg.FixedFee != nil {
		snapshot["fixedFee"] = cfg.FixedFee.String()
	}
	if cfg.MinFee != nil {
		snapshot["minFee"] = cfg.MinFee.String()
	}
	if cfg.MaxFee != nil {
		snapshot["maxFee"] = cfg.MaxFee.String()
	}
	return snapshot
}
