package repositories

import (
	"errors"
	"time"

	"billpay/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrVersionConflict signals a lost optimistic-lock race on batch counters.
// Callers retry with backoff.
var ErrVersionConflict = errors.New("batch version conflict")

// BatchQuery filters batch listings.
type BatchQuery struct {
	Status    models.BatchStatus
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Size      int
}

// BatchRepository owns settlement batch persistence. Counter updates use an
// optimistic version check so concurrent settlements never lose increments.
type BatchRepository interface {
	WithTx(tx *gorm.DB) BatchRepository

	GetByID(id uuid.UUID) (*models.SettlementBatch, error)
	GetByDate(date time.Time) (*models.SettlementBatch, error)
	Create(batch *models.SettlementBatch) error
	CountByDate(date time.Time) (int64, error)
	List(q BatchQuery) ([]models.SettlementBatch, int64, error)
	Save(batch *models.SettlementBatch) error
	// ApplyDelta adds the deltas to the batch counters if and only if the
	// version still matches, bumping the version. Returns
	// ErrVersionConflict when the row moved underneath us.
	ApplyDelta(id uuid.UUID, version int, dTransactions int, dAmount, dFee decimal.Decimal) error
	// TransitionStatus moves the batch between states only when it is
	// still in the expected state.
	TransitionStatus(id uuid.UUID, from, to models.BatchStatus) (bool, error)
}

type batchRepository struct {
	db *gorm.DB
}

func NewBatchRepository(db *gorm.DB) BatchRepository {
	return &batchRepository{db: db}
}

func (r *batchRepository) WithTx(tx *gorm.DB) BatchRepository {
	return &batchRepository{db: tx}
}

func (r *batchRepository) GetByID(id uuid.UUID) (*models.SettlementBatch, error) {
	var batch models.SettlementBatch
	if err := r.db.First(&batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}
	return &batch, nil
}

func (r *batchRepository) GetByDate(date time.Time) (*models.SettlementBatch, error) {
	var batch models.SettlementBatch
	if err := r.db.First(&batch, "settlement_date = ?", date.Format("2006-01-02")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}
	return &batch, nil
}

func (r *batchRepository) Create(batch *models.SettlementBatch) error {
	return r.db.Create(batch).Error
}

func (r *batchRepository) CountByDate(date time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.SettlementBatch{}).
		Where("settlement_date = ?", date.Format("2006-01-02")).
		Count(&count).Error
	return count, err
}

func (r *batchRepository) List(q BatchQuery) ([]models.SettlementBatch, int64, error) {
	base := r.db.Model(&models.SettlementBatch{})
	if q.Status != "" {
		base = base.Where("status = ?", q.Status)
	}
	if q.StartDate != nil {
		base = base.Where("settlement_date >= ?", q.StartDate.Format("2006-01-02"))
	}
	if q.EndDate != nil {
		base = base.Where("settlement_date <= ?", q.EndDate.Format("2006-01-02"))
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var batches []models.SettlementBatch
	err := base.Order("settlement_date desc").
		Offset(q.Page * q.Size).
		Limit(q.Size).
		Find(&batches).Error
	if err != nil {
		return nil, 0, err
	}
	return batches, total, nil
}

func (r *batchRepository) Save(batch *models.SettlementBatch) error {
	return r.db.Save(batch).Error
}

func (r *batchRepository) ApplyDelta(id uuid.UUID, version int, dTransactions int, dAmount, dFee decimal.Decimal) error {
	res := r.db.Model(&models.SettlementBatch{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]interface{}{
			"total_transactions": gorm.Expr("total_transactions + ?", dTransactions),
			"total_amount":       gorm.Expr("total_amount + ?", dAmount),
			"total_fee_amount":   gorm.Expr("total_fee_amount + ?", dFee),
			"version":            gorm.Expr("version + 1"),
			"updated_at":         time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *batchRepository) TransitionStatus(id uuid.UUID, from, to models.BatchStatus) (bool, error) {
	res := r.db.Model(&models.SettlementBatch{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
