package ledger

import (
	"context"

	"github.com/envelope-zero/ledger/internal/models"
	"github.com/envelope-zero/ledger/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Query is the read side of the ledger.
type Query struct {
	store *store.Store
}

// NewQuery returns a Query reading from s.
func NewQuery(s *store.Store) *Query {
	return &Query{store: s}
}

// Reconciliation compares the balance of an envelope with its transaction log.
type Reconciliation struct {
	EnvelopeID       uuid.UUID       `json:"envelopeId"`
	InitialBalance   decimal.Decimal `json:"initialBalance"`
	Sum              decimal.Decimal `json:"sum"`      // Sum of all transaction deltas
	Expected         decimal.Decimal `json:"expected"` // Initial balance plus the sum
	Balance          decimal.Decimal `json:"balance"`
	TransactionCount int             `json:"transactionCount"`
	Consistent       bool            `json:"consistent"`
}

// ListTransactions returns the transactions of the envelope, oldest first.
func (q *Query) ListTransactions(ctx context.Context, envelopeID uuid.UUID) ([]models.Transaction, error) {
	transactions, err := q.store.Transactions(ctx, envelopeID)
	return transactions, translate(err)
}

// GetTransaction returns the transaction with the given friendly id.
func (q *Query) GetTransaction(ctx context.Context, friendlyID string) (models.Transaction, error) {
	transaction, err := q.store.TransactionByFriendlyID(ctx, friendlyID)
	return transaction, translate(err)
}

// GetEnvelope returns the envelope with the given id.
func (q *Query) GetEnvelope(ctx context.Context, envelopeID uuid.UUID) (models.Envelope, error) {
	envelope, err := q.store.Envelope(ctx, envelopeID)
	return envelope, translate(err)
}

// Reconcile sums the transaction log of the envelope and checks it
// against the stored balance.
//
// The envelope is locked while reading so that the log and the balance
// are from the same point in time.
func (q *Query) Reconcile(ctx context.Context, envelopeID uuid.UUID) (Reconciliation, error) {
	var envelope models.Envelope
	var transactions []models.Transaction
	err := q.store.Atomic(ctx, func(tx *store.Tx) error {
		var err error
		envelope, err = tx.GetForUpdate(ctx, envelopeID)
		if err != nil {
			return err
		}

		transactions, err = tx.Transactions(ctx, envelopeID)
		return err
	}, envelopeID)
	if err != nil {
		return Reconciliation{}, translate(err)
	}

	sum := decimal.Zero
	for _, t := range transactions {
		sum = sum.Add(t.Delta)
	}

	expected := envelope.InitialBalance.Add(sum)
	return Reconciliation{
		EnvelopeID:       envelope.PublicID,
		InitialBalance:   envelope.InitialBalance,
		Sum:              sum,
		Expected:         expected,
		Balance:          envelope.Balance,
		TransactionCount: len(transactions),
		Consistent:       expected.Equal(envelope.Balance),
	}, nil
}
