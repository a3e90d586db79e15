package repositories

import (
	"errors"

	"billpay/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionEventRepository is the append-only event ledger. Events are
// created once and never updated.
type TransactionEventRepository interface {
	Create(event *models.TransactionEvent) error
	GetByID(id uuid.UUID) (*models.TransactionEvent, error)
	// ListByTransaction returns all events of a transaction ordered by
	// event sequence.
	ListByTransaction(transactionID uuid.UUID) ([]models.TransactionEvent, error)
	// NextSequence returns the next event sequence for a transaction.
	NextSequence(transactionID uuid.UUID) (int, error)
}

type transactionEventRepository struct {
	db *gorm.DB
}

func NewTransactionEventRepository(db *gorm.DB) TransactionEventRepository {
	return &transactionEventRepository{db: db}
}

func (r *transactionEventRepository) Create(event *models.TransactionEvent) error {
	return r.db.Create(event).Error
}

func (r *transactionEventRepository) GetByID(id uuid.UUID) (*models.TransactionEvent, error) {
	var event models.TransactionEvent
	if err := r.db.First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *transactionEventRepository) ListByTransaction(transactionID uuid.UUID) ([]models.TransactionEvent, error) {
	var events []models.TransactionEvent
	err := r.db.Where("transaction_id = ?", transactionID).
		Order("event_sequence asc").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *transactionEventRepository) NextSequence(transactionID uuid.UUID) (int, error) {
	var max int
	err := r.db.Model(&models.TransactionEvent{}).
		Where("transaction_id = ?", transactionID).
		Select("COALESCE(MAX(event_sequence), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}
