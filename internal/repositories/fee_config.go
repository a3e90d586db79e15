package repositories

import (
	"errors"

	"billpay/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FeeConfigRepository stores fee configurations and their immutable
// audit journal.
type FeeConfigRepository interface {
	GetByID(id uuid.UUID) (*models.FeeConfiguration, error)
	// FindForEntity returns every configuration for the entity + payment
	// method, newest ValidFrom first. Point-in-time selection happens in
	// the resolver; past validity windows are immutable so the snapshot is
	// consistent without locking.
	FindForEntity(entityID, paymentMethodID uuid.UUID) ([]models.FeeConfiguration, error)
	ListByEntity(entityID uuid.UUID) ([]models.FeeConfiguration, error)
	Create(cfg *models.FeeConfiguration, history *models.FeeConfigHistory) error
	Update(cfg *models.FeeConfiguration, history *models.FeeConfigHistory) error
	HistoryByConfig(feeConfigID uuid.UUID) ([]models.FeeConfigHistory, error)
	HistoryByEntity(entityID uuid.UUID) ([]models.FeeConfigHistory, error)

	GetPaymentMethodByID(id uuid.UUID) (*models.PaymentMethod, error)
	GetPaymentMethodByCode(code string) (*models.PaymentMethod, error)
}

type feeConfigRepository struct {
	db *gorm.DB
}

func NewFeeConfigRepository(db *gorm.DB) FeeConfigRepository {
	return &feeConfigRepository{db: db}
}

func (r *feeConfigRepository) GetByID(id uuid.UUID) (*models.FeeConfiguration, error) {
	var cfg models.FeeConfiguration
	if err := r.db.First(&cfg, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeeConfigNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *feeConfigRepository) FindForEntity(entityID, paymentMethodID uuid.UUID) ([]models.FeeConfiguration, error) {
	var configs []models.FeeConfiguration
	err := r.db.
		Where("entity_id = ? AND payment_method_id = ?", entityID, paymentMethodID).
		Order("priority desc, valid_from desc").
		Find(&configs).Error
	if err != nil {
		return nil, err
	}
	return configs, nil
}

func (r *feeConfigRepository) ListByEntity(entityID uuid.UUID) ([]models.FeeConfiguration, error) {
	var configs []models.FeeConfiguration
	err := r.db.Where("entity_id = ?", entityID).
		Order("created_at desc").
		Find(&configs).Error
	if err != nil {
		return nil, err
	}
	return configs, nil
}

func (r *feeConfigRepository) Create(cfg *models.FeeConfiguration, history *models.FeeConfigHistory) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(cfg).Error; err != nil {
			return err
		}
		return tx.Create(history).Error
	})
}

func (r *feeConfigRepository) Update(cfg *models.FeeConfiguration, history *models.FeeConfigHistory) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(cfg).Error; err != nil {
			return err
		}
		return tx.Create(history).Error
	})
}

func (r *feeConfigRepository) HistoryByConfig(feeConfigID uuid.UUID) ([]models.FeeConfigHistory, error) {
	var history []models.FeeConfigHistory
	err := r.db.Where("fee_config_id = ?", feeConfigID).
		Order("created_at desc").
		Find(&history).Error
	if err != nil {
		return nil, err
	}
	return history, nil
}

func (r *feeConfigRepository) HistoryByEntity(entityID uuid.UUID) ([]models.FeeConfigHistory, error) {
	var history []models.FeeConfigHistory
	err := r.db.Where("entity_id = ?", entityID).
		Order("created_at desc").
		Find(&history).Error
	if err != nil {
		return nil, err
	}
	return history, nil
}

func (r *feeConfigRepository) GetPaymentMethodByID(id uuid.UUID) (*models.PaymentMethod, error) {
	var pm models.PaymentMethod
	if err := r.db.First(&pm, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentMethodNotFound
		}
		return nil, err
	}
	return &pm, nil
}

func (r *feeConfigRepository) GetPaymentMethodByCode(code string) (*models.PaymentMethod, error) {
	var pm models.PaymentMethod
	if err := r.db.First(&pm, "method_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentMethodNotFound
		}
		return nil, err
	}
	return &pm, nil
}
