// Package ledger implements the envelope operations and the read side
// of the ledger.
//
// Every operation changes the balance of an envelope and appends a
// transaction in one atomic unit, so that the balance of an envelope always
// equals its initial balance plus the sum of the deltas of its transactions.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/envelope-zero/ledger/internal/events"
	"github.com/envelope-zero/ledger/internal/friendlyid"
	"github.com/envelope-zero/ledger/internal/metrics"
	"github.com/envelope-zero/ledger/internal/models"
	"github.com/envelope-zero/ledger/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Operation names used in metrics and logs
const (
	OperationCreate   = "create"
	OperationDeposit  = "deposit"
	OperationWithdraw = "withdraw"
)

// Engine performs the write operations on envelopes.
type Engine struct {
	store     *store.Store
	encoder   *friendlyid.Encoder
	overdraft bool
	metrics   *metrics.Metrics
	publisher events.Publisher
	log       zerolog.Logger
}

// New returns an Engine.
func New(s *store.Store, encoder *friendlyid.Encoder, opts ...Option) *Engine {
	e := &Engine{
		store:     s,
		encoder:   encoder,
		overdraft: true,
		publisher: events.Nop{},
		log:       log.Logger,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Create creates an envelope in an account and records a CREATED transaction.
//
// The balance defaults to the budget if it is nil. Budget and balance may
// differ.
func (e *Engine) Create(ctx context.Context, user uint64, now time.Time, accountID uuid.UUID, name, description string, budget decimal.Decimal, balance *decimal.Decimal) (models.Envelope, models.Transaction, error) {
	start := time.Now()

	budget = budget.Round(2)
	if budget.IsNegative() {
		err := fmt.Errorf("%w: budget is %s", ErrInvalidAmount, budget)
		e.finish(ctx, OperationCreate, start, models.Envelope{}, models.Transaction{}, err)
		return models.Envelope{}, models.Transaction{}, err
	}

	initial := budget
	if balance != nil {
		initial = balance.Round(2)
	}

	now = timestamp(now)

	var envelope models.Envelope
	var transaction models.Transaction
	err := e.store.Atomic(ctx, func(tx *store.Tx) error {
		if _, err := tx.Account(ctx, accountID); err != nil {
			return err
		}

		envelope = models.Envelope{
			Timestamps: models.Timestamps{
				Created:  now,
				Modified: now,
			},
			CreatorID:      user,
			Name:           name,
			Description:    description,
			Budget:         budget,
			Balance:        initial,
			InitialBalance: initial,
			AccountID:      accountID,
		}

		if err := tx.CreateEnvelope(&envelope); err != nil {
			return err
		}

		var err error
		transaction, err = e.transaction(envelope, user, now, models.TransactionTypeCreated, decimal.Zero, transactionOptions{})
		if err != nil {
			return err
		}

		return tx.Append(&transaction)
	})

	err = translate(err)
	if err != nil {
		envelope, transaction = models.Envelope{}, models.Transaction{}
	}

	e.finish(ctx, OperationCreate, start, envelope, transaction, err)
	return envelope, transaction, err
}

// Deposit adds amount to the balance of the envelope and records a
// DEPOSITED transaction.
//
// The amount is rounded to two decimal places and must be positive. The
// friendly id depends only on now, the amount, the envelope and the user,
// so repeating a deposit with the same values fails with
// models.ErrFriendlyIDConflict.
func (e *Engine) Deposit(ctx context.Context, envelopeID uuid.UUID, user uint64, amount decimal.Decimal, now time.Time, opts ...TransactionOption) (models.Envelope, models.Transaction, error) {
	return e.move(ctx, OperationDeposit, envelopeID, user, amount, now, opts)
}

// Withdraw subtracts amount from the balance of the envelope and records a
// WITHDRAWN transaction.
//
// The amount is rounded to two decimal places and must be positive. Unless
// overdrafts are allowed, withdrawing more than the balance fails with
// ErrNonSufficientFunds. As with Deposit, repeating a withdrawal with the
// same now, amount, envelope and user fails with models.ErrFriendlyIDConflict.
func (e *Engine) Withdraw(ctx context.Context, envelopeID uuid.UUID, user uint64, amount decimal.Decimal, now time.Time, opts ...TransactionOption) (models.Envelope, models.Transaction, error) {
	return e.move(ctx, OperationWithdraw, envelopeID, user, amount, now, opts)
}

func (e *Engine) move(ctx context.Context, operation string, envelopeID uuid.UUID, user uint64, amount decimal.Decimal, now time.Time, opts []TransactionOption) (models.Envelope, models.Transaction, error) {
	start := time.Now()

	amount = amount.Round(2)
	if !amount.IsPositive() {
		err := fmt.Errorf("%w: amount is %s", ErrInvalidAmount, amount)
		e.finish(ctx, operation, start, models.Envelope{}, models.Transaction{}, err)
		return models.Envelope{}, models.Transaction{}, err
	}

	o := transactionOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	transactionType := models.TransactionTypeDeposited
	delta := amount
	if operation == OperationWithdraw {
		transactionType = models.TransactionTypeWithdrawn
		delta = amount.Neg()
	}

	now = timestamp(now)

	var envelope models.Envelope
	var transaction models.Transaction
	err := e.store.Atomic(ctx, func(tx *store.Tx) error {
		var err error
		envelope, err = tx.GetForUpdate(ctx, envelopeID)
		if err != nil {
			return err
		}

		if o.categoryID != nil {
			if _, err := tx.Category(ctx, *o.categoryID); err != nil {
				return err
			}
		}

		balance := envelope.Balance.Add(delta)
		if !e.overdraft && balance.IsNegative() {
			return fmt.Errorf("%w: balance is %s, withdrawal is %s", ErrNonSufficientFunds, envelope.Balance, amount)
		}

		envelope.Balance = balance
		envelope.Modified = now
		if err := tx.Save(&envelope, "Balance", "Modified"); err != nil {
			return err
		}

		transaction, err = e.transaction(envelope, user, now, transactionType, delta, o)
		if err != nil {
			return err
		}

		return tx.Append(&transaction)
	}, envelopeID)

	err = translate(err)
	if err != nil {
		envelope, transaction = models.Envelope{}, models.Transaction{}
	}

	e.finish(ctx, operation, start, envelope, transaction, err)
	return envelope, transaction, err
}

// transaction builds the transaction for a change of the envelope.
func (e *Engine) transaction(envelope models.Envelope, user uint64, now time.Time, transactionType models.TransactionType, delta decimal.Decimal, o transactionOptions) (models.Transaction, error) {
	friendlyID, err := e.encoder.Encode(now, delta, envelope.ID, user)
	if err != nil {
		return models.Transaction{}, err
	}

	return models.Transaction{
		FriendlyID:  friendlyID,
		UserID:      user,
		Created:     now,
		EnvelopeID:  envelope.PublicID,
		Type:        transactionType,
		Delta:       delta,
		Description: o.description,
		CategoryID:  o.categoryID,
		Comment:     o.comment,
	}, nil
}

// finish records metrics and logs the outcome of an operation. For
// committed operations, the event is published.
func (e *Engine) finish(ctx context.Context, operation string, start time.Time, envelope models.Envelope, transaction models.Transaction, err error) {
	e.metrics.ObserveOperation(operation, err, time.Since(start))

	if err != nil {
		e.log.Error().Err(err).Str("operation", operation).Msg("Ledger operation failed")
		return
	}

	e.log.Debug().
		Str("operation", operation).
		Str("envelope", envelope.PublicID.String()).
		Str("friendly_id", transaction.FriendlyID).
		Str("delta", transaction.Delta.String()).
		Str("balance", envelope.Balance.String()).
		Msg("Ledger operation committed")

	// The operation is committed, a failed publication does not change that
	if err := e.publisher.Publish(ctx, events.NewEvent(envelope, transaction)); err != nil {
		e.log.Error().Err(err).Str("friendly_id", transaction.FriendlyID).Msg("Publishing ledger event failed")
	}
}

// timestamp returns now in UTC, defaulting to the current time.
func timestamp(now time.Time) time.Time {
	if now.IsZero() {
		return time.Now().UTC()
	}
	return now.UTC()
}
