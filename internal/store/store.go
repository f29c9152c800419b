// Package store persists envelopes and their transactions.
//
// All changes happen in atomic units started with Store.Atomic. Envelopes
// passed to Store.Atomic or read with Tx.GetForUpdate stay locked until the
// unit has committed or rolled back.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/envelope-zero/ledger/internal/metrics"
	"github.com/envelope-zero/ledger/internal/models"
	"github.com/google/uuid"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// DefaultLockTimeout is the time an operation waits for an envelope lock.
const DefaultLockTimeout = 5 * time.Second

// Store is the gorm backed ledger storage.
type Store struct {
	db          *gorm.DB
	locks       *locker
	lockTimeout time.Duration
	metrics     *metrics.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithLockTimeout sets how long a unit waits for an envelope lock or a
// database connection.
func WithLockTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		s.lockTimeout = timeout
	}
}

// WithMetrics records lock waits in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New returns a Store for db. The database must be migrated.
func New(db *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db:          db,
		locks:       newLocker(),
		lockTimeout: DefaultLockTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Atomic runs fn in a database transaction.
//
// The envelopes in lock are locked before the transaction begins and stay
// locked until it has ended. Waiting for them and for a database connection
// is bounded by the lock timeout and ends early when ctx is done.
//
// The transaction is committed if fn returns nil and rolled back if it
// returns an error or panics. Once begun, it is not interrupted by ctx.
func (s *Store) Atomic(ctx context.Context, fn func(tx *Tx) error, lock ...uuid.UUID) error {
	tx := &Tx{store: s}
	defer tx.release()

	start := time.Now()

	// Sorted, so that units locking the same envelopes cannot deadlock
	ids := slices.Clone(lock)
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	for _, id := range slices.Compact(ids) {
		if err := tx.lock(ctx, id); err != nil {
			s.metrics.ObserveLockWait(time.Since(start))
			return err
		}
	}

	wait, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	connected := false
	err := s.db.WithContext(wait).Connection(func(conn *gorm.DB) error {
		connected = true
		s.metrics.ObserveLockWait(time.Since(start))

		return conn.WithContext(context.WithoutCancel(ctx)).Transaction(func(db *gorm.DB) error {
			if db.Dialector.Name() == "postgres" {
				// Row locks must not block longer than the in-process lock
				err := db.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())).Error
				if err != nil {
					return err
				}
			}

			tx.db = db
			return fn(tx)
		})
	})

	if err != nil && !connected {
		s.metrics.ObserveLockWait(time.Since(start))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: waited %s for a database connection", models.ErrLockTimeout, s.lockTimeout)
		}
	}

	return err
}

// Envelope returns the envelope with the given public id.
func (s *Store) Envelope(ctx context.Context, id uuid.UUID) (models.Envelope, error) {
	var envelope models.Envelope
	err := s.db.WithContext(ctx).Where("public_id = ?", id).First(&envelope).Error
	return envelope, err
}

// Transactions returns all transactions of an envelope, oldest first.
//
// Transactions created at the same time are returned in insertion order.
func (s *Store) Transactions(ctx context.Context, envelopeID uuid.UUID) ([]models.Transaction, error) {
	_, err := s.Envelope(ctx, envelopeID)
	if err != nil {
		return nil, err
	}

	return transactions(s.db.WithContext(ctx), envelopeID)
}

func transactions(db *gorm.DB, envelopeID uuid.UUID) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := db.
		Where("envelope_id = ?", envelopeID).
		Order("created ASC, id ASC").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

// TransactionByFriendlyID returns the transaction with the given friendly id.
func (s *Store) TransactionByFriendlyID(ctx context.Context, friendlyID string) (models.Transaction, error) {
	var transaction models.Transaction
	err := s.db.WithContext(ctx).Where("friendly_id = ?", friendlyID).First(&transaction).Error
	return transaction, err
}
