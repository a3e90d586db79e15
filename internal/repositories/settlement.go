package repositories

import (
	"time"

	"billpay/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SettlementQuery filters the entry listing endpoints.
type SettlementQuery struct {
	EntityType string
	Status     models.SettlementStatus
	StartDate  *time.Time
	EndDate    *time.Time
	// PathPrefix scopes results to a subtree of the hierarchy.
	PathPrefix string
	MerchantID *uuid.UUID
	SortBy     string
	Direction  string
	Page       int
	Size       int
}

var settlementSortColumns = map[string]string{
	"createdAt": "created_at",
	"amount":    "amount",
	"feeAmount": "fee_amount",
	"netAmount": "net_amount",
	"settledAt": "settled_at",
}

// SettlementEntryRepository owns settlement entry persistence. Writes
// happen inside the engine's per-event transaction via WithTx.
type SettlementEntryRepository interface {
	// WithTx returns a repository bound to the given transaction.
	WithTx(tx *gorm.DB) SettlementEntryRepository

	CreateAll(entries []models.SettlementEntry) error
	FindByEventID(eventID uuid.UUID) ([]models.SettlementEntry, error)
	// FindLiveByEventID returns the entries of an event that carry batch
	// counters. CANCELLED rows were voided; FAILED rows are audit records
	// that never registered any counters.
	FindLiveByEventID(eventID uuid.UUID) ([]models.SettlementEntry, error)
	// VoidByEventID marks all live entries of an event CANCELLED and
	// returns how many rows were touched.
	VoidByEventID(eventID uuid.UUID) (int64, error)
	Query(q SettlementQuery) ([]models.SettlementEntry, int64, error)
	// FindInRange returns all live entries whose creation time falls in
	// [start, end), optionally scoped to a path prefix.
	FindInRange(start, end time.Time, pathPrefix string) ([]models.SettlementEntry, error)
	FindByBatchID(batchID uuid.UUID) ([]models.SettlementEntry, error)
	// FindUnbatchedInRange returns live entries without a batch in the
	// given window.
	FindUnbatchedInRange(start, end time.Time) ([]models.SettlementEntry, error)
	// AssignBatch attaches entries to a batch.
	AssignBatch(entryIDs []uuid.UUID, batchID uuid.UUID) error
	// MarkSettledByBatch flips all PENDING entries of a batch to SETTLED.
	MarkSettledByBatch(batchID uuid.UUID, at time.Time) (int64, error)
}

type settlementEntryRepository struct {
	db *gorm.DB
}

func NewSettlementEntryRepository(db *gorm.DB) SettlementEntryRepository {
	return &settlementEntryRepository{db: db}
}

func (r *settlementEntryRepository) WithTx(tx *gorm.DB) SettlementEntryRepository {
	return &settlementEntryRepository{db: tx}
}

func (r *settlementEntryRepository) CreateAll(entries []models.SettlementEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.Create(&entries).Error
}

func (r *settlementEntryRepository) FindByEventID(eventID uuid.UUID) ([]models.SettlementEntry, error) {
	var entries []models.SettlementEntry
	err := r.db.Where("transaction_event_id = ?", eventID).
		Order("created_at asc, entity_path asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *settlementEntryRepository) FindLiveByEventID(eventID uuid.UUID) ([]models.SettlementEntry, error) {
	var entries []models.SettlementEntry
	err := r.db.
		Where("transaction_event_id = ? AND status NOT IN ?", eventID,
			[]models.SettlementStatus{models.SettlementStatusCancelled, models.SettlementStatusFailed}).
		Order("entity_path asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *settlementEntryRepository) VoidByEventID(eventID uuid.UUID) (int64, error) {
	res := r.db.Model(&models.SettlementEntry{}).
		Where("transaction_event_id = ? AND status <> ?", eventID, models.SettlementStatusCancelled).
		Updates(map[string]interface{}{
			"status":     models.SettlementStatusCancelled,
			"updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

func (r *settlementEntryRepository) Query(q SettlementQuery) ([]models.SettlementEntry, int64, error) {
	base := r.db.Model(&models.SettlementEntry{})
	if q.EntityType != "" {
		base = base.Where("entity_type = ?", q.EntityType)
	}
	if q.Status != "" {
		base = base.Where("status = ?", q.Status)
	}
	if q.StartDate != nil {
		base = base.Where("created_at >= ?", *q.StartDate)
	}
	if q.EndDate != nil {
		base = base.Where("created_at < ?", *q.EndDate)
	}
	if q.PathPrefix != "" {
		base = base.Where("entity_path LIKE ?", q.PathPrefix+"%")
	}
	if q.MerchantID != nil {
		base = base.Where("merchant_id = ?", *q.MerchantID)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	col, ok := settlementSortColumns[q.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "desc"
	if q.Direction == "asc" {
		dir = "asc"
	}

	var entries []models.SettlementEntry
	err := base.Order(col + " " + dir).
		Offset(q.Page * q.Size).
		Limit(q.Size).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *settlementEntryRepository) FindInRange(start, end time.Time, pathPrefix string) ([]models.SettlementEntry, error) {
	q := r.db.
		Where("created_at >= ? AND created_at < ?", start, end).
		Where("status <> ?", models.SettlementStatusCancelled)
	if pathPrefix != "" {
		q = q.Where("entity_path LIKE ?", pathPrefix+"%")
	}
	var entries []models.SettlementEntry
	if err := q.Order("created_at asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *settlementEntryRepository) FindByBatchID(batchID uuid.UUID) ([]models.SettlementEntry, error) {
	var entries []models.SettlementEntry
	err := r.db.Where("settlement_batch_id = ?", batchID).
		Order("created_at asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *settlementEntryRepository) FindUnbatchedInRange(start, end time.Time) ([]models.SettlementEntry, error) {
	var entries []models.SettlementEntry
	err := r.db.
		Where("settlement_batch_id IS NULL AND status = ?", models.SettlementStatusPending).
		Where("created_at >= ? AND created_at < ?", start, end).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *settlementEntryRepository) AssignBatch(entryIDs []uuid.UUID, batchID uuid.UUID) error {
	if len(entryIDs) == 0 {
		return nil
	}
	return r.db.Model(&models.SettlementEntry{}).
		Where("id IN ?", entryIDs).
		Update("settlement_batch_id", batchID).Error
}

func (r *settlementEntryRepository) MarkSettledByBatch(batchID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.Model(&models.SettlementEntry{}).
		Where("settlement_batch_id = ? AND status = ?", batchID, models.SettlementStatusPending).
		Updates(map[string]interface{}{
			"status":     models.SettlementStatusSettled,
			"settled_at": at,
			"updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}
