package repositories

import (
	"errors"

	"billpay/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MerchantRepository provides merchant lookups and the re-parenting
// history the engine needs for historical attribution.
type MerchantRepository interface {
	GetByID(id uuid.UUID) (*models.Merchant, error)
	GetByIDs(ids []uuid.UUID) ([]models.Merchant, error)
	Create(m *models.Merchant) error
	// Move updates the merchant's organization and appends the history row
	// in one transaction.
	Move(m *models.Merchant, history *models.MerchantOrgHistory) error
	// OrgHistory returns the merchant's moves ordered by MovedAt ascending.
	OrgHistory(merchantID uuid.UUID) ([]models.MerchantOrgHistory, error)
}

type merchantRepository struct {
	db *gorm.DB
}

func NewMerchantRepository(db *gorm.DB) MerchantRepository {
	return &merchantRepository{db: db}
}

func (r *merchantRepository) GetByID(id uuid.UUID) (*models.Merchant, error) {
	var m models.Merchant
	if err := r.db.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *merchantRepository) GetByIDs(ids []uuid.UUID) ([]models.Merchant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var merchants []models.Merchant
	if err := r.db.Where("id IN ?", ids).Find(&merchants).Error; err != nil {
		return nil, err
	}
	return merchants, nil
}

func (r *merchantRepository) Create(m *models.Merchant) error {
	return r.db.Create(m).Error
}

func (r *merchantRepository) Move(m *models.Merchant, history *models.MerchantOrgHistory) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(history).Error; err != nil {
			return err
		}
		return tx.Save(m).Error
	})
}

func (r *merchantRepository) OrgHistory(merchantID uuid.UUID) ([]models.MerchantOrgHistory, error) {
	var history []models.MerchantOrgHistory
	err := r.db.Where("merchant_id = ?", merchantID).
		Order("moved_at asc").
		Find(&history).Error
	if err != nil {
		return nil, err
	}
	return history, nil
}
