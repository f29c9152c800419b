package store

import (
	"context"
	"time"

	"github.com/envelope-zero/ledger/internal/models"
	"github.com/google/uuid"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Tx is one atomic unit of work, see Store.Atomic.
type Tx struct {
	store *Store
	db    *gorm.DB
	held  []uuid.UUID
}

// GetForUpdate locks the envelope and reads it.
//
// The lock is held until the atomic unit ends. Locking an envelope that
// the unit already holds does not wait. Envelopes not passed to
// Store.Atomic are locked here, while the unit holds a database connection.
func (tx *Tx) GetForUpdate(ctx context.Context, id uuid.UUID) (models.Envelope, error) {
	if !slices.Contains(tx.held, id) {
		start := time.Now()
		err := tx.lock(ctx, id)
		tx.store.metrics.ObserveLockWait(time.Since(start))
		if err != nil {
			return models.Envelope{}, err
		}
	}

	var envelope models.Envelope
	err := tx.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("public_id = ?", id).
		First(&envelope).Error
	return envelope, err
}

// Save persists the listed fields of the envelope. Other fields are left
// untouched in the database.
func (tx *Tx) Save(envelope *models.Envelope, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}

	return tx.db.Model(envelope).Select(fields).Updates(envelope).Error
}

// Append inserts a transaction.
func (tx *Tx) Append(transaction *models.Transaction) error {
	return tx.db.Omit(clause.Associations).Create(transaction).Error
}

// CreateEnvelope inserts a new envelope.
func (tx *Tx) CreateEnvelope(envelope *models.Envelope) error {
	return tx.db.Omit(clause.Associations).Create(envelope).Error
}

// CreateAccount inserts a new account.
func (tx *Tx) CreateAccount(account *models.Account) error {
	return tx.db.Create(account).Error
}

// CreateCategory inserts a new category.
func (tx *Tx) CreateCategory(category *models.Category) error {
	return tx.db.Create(category).Error
}

// Account returns the account with the given public id.
func (tx *Tx) Account(_ context.Context, id uuid.UUID) (models.Account, error) {
	var account models.Account
	err := tx.db.Where("public_id = ?", id).First(&account).Error
	return account, err
}

// Category returns the category with the given public id.
func (tx *Tx) Category(_ context.Context, id uuid.UUID) (models.Category, error) {
	var category models.Category
	err := tx.db.Where("public_id = ?", id).First(&category).Error
	return category, err
}

// Transactions returns the transactions of an envelope, oldest first.
// Use GetForUpdate first to read them consistently with the envelope.
func (tx *Tx) Transactions(_ context.Context, envelopeID uuid.UUID) ([]models.Transaction, error) {
	return transactions(tx.db, envelopeID)
}

func (tx *Tx) lock(ctx context.Context, id uuid.UUID) error {
	if slices.Contains(tx.held, id) {
		return nil
	}

	if err := tx.store.locks.acquire(ctx, id, tx.store.lockTimeout); err != nil {
		return err
	}
	tx.held = append(tx.held, id)
	return nil
}

func (tx *Tx) release() {
	for _, id := range tx.held {
		tx.store.locks.release(id)
	}
	tx.held = nil
}
