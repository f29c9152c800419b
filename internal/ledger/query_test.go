package ledger_test

import (
	"context"
	"time"

	"github.com/envelope-zero/ledger/internal/models"
	"github.com/envelope-zero/ledger/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (suite *TestSuiteStandard) TestListTransactionsUnknownEnvelope() {
	_, err := suite.query.ListTransactions(context.Background(), uuid.New())
	suite.Assert().ErrorIs(err, models.ErrResourceNotFound)
}

func (suite *TestSuiteStandard) TestListTransactionsOrderedByCreation() {
	envelope := suite.createTestEnvelope("0")

	// Operations carry their own time, which need not be monotonic
	_, late, err := suite.engine.Deposit(context.Background(), envelope.PublicID, user, decimal.NewFromInt(1), now.Add(2*time.Hour))
	suite.Require().NoError(err)
	_, early, err := suite.engine.Deposit(context.Background(), envelope.PublicID, user, decimal.NewFromInt(2), now.Add(time.Hour))
	suite.Require().NoError(err)

	transactions, err := suite.query.ListTransactions(context.Background(), envelope.PublicID)
	suite.Require().NoError(err)
	suite.Require().Len(transactions, 3)
	suite.Assert().Equal(models.TransactionTypeCreated, transactions[0].Type)
	suite.Assert().Equal(early.FriendlyID, transactions[1].FriendlyID)
	suite.Assert().Equal(late.FriendlyID, transactions[2].FriendlyID)
}

func (suite *TestSuiteStandard) TestListTransactionsOnlyOwnEnvelope() {
	a := suite.createTestEnvelope("0")
	b := suite.createTestEnvelope("0")

	_, _, err := suite.engine.Deposit(context.Background(), b.PublicID, user, decimal.NewFromInt(1), now)
	suite.Require().NoError(err)

	transactions, err := suite.query.ListTransactions(context.Background(), a.PublicID)
	suite.Require().NoError(err)
	suite.Assert().Len(transactions, 1)
}

func (suite *TestSuiteStandard) TestGetTransaction() {
	envelope := suite.createTestEnvelope("0")

	_, deposited, err := suite.engine.Deposit(context.Background(), envelope.PublicID, user, decimal.RequireFromString("7.50"), now)
	suite.Require().NoError(err)

	transaction, err := suite.query.GetTransaction(context.Background(), deposited.FriendlyID)
	suite.Require().NoError(err)
	suite.Assert().Equal(envelope.PublicID, transaction.EnvelopeID)
	suite.Assert().Equal(user, transaction.UserID)
	suite.Assert().Equal(now, transaction.Created)
	suite.Assert().True(transaction.Delta.Equal(decimal.RequireFromString("7.5")))

	_, err = suite.query.GetTransaction(context.Background(), "00000000")
	suite.Assert().ErrorIs(err, models.ErrResourceNotFound)
}

func (suite *TestSuiteStandard) TestGetEnvelopeUnknown() {
	_, err := suite.query.GetEnvelope(context.Background(), uuid.New())
	suite.Assert().ErrorIs(err, models.ErrResourceNotFound)
}

// TestReconcile checks that the balance can be reconstructed
// from the transaction log.
func (suite *TestSuiteStandard) TestReconcile() {
	account := suite.createTestAccount()
	balance := decimal.RequireFromString("80.10")

	envelope, _, err := suite.engine.Create(context.Background(), user, now, account.PublicID, "Rent", "", decimal.NewFromInt(100), &balance)
	suite.Require().NoError(err)

	operations := []struct {
		deposit bool
		amount  string
	}{
		{true, "12.34"},
		{false, "100.00"},
		{true, "0.01"},
		{false, "3.33"},
		{true, "250"},
	}

	for i, o := range operations {
		at := now.Add(time.Duration(i+1) * time.Minute)
		amount := decimal.RequireFromString(o.amount)
		if o.deposit {
			_, _, err = suite.engine.Deposit(context.Background(), envelope.PublicID, user, amount, at)
		} else {
			_, _, err = suite.engine.Withdraw(context.Background(), envelope.PublicID, user, amount, at)
		}
		suite.Require().NoError(err)
	}

	reconciliation, err := suite.query.Reconcile(context.Background(), envelope.PublicID)
	suite.Require().NoError(err)
	suite.Assert().True(reconciliation.Consistent)
	suite.Assert().Equal(len(operations)+1, reconciliation.TransactionCount)
	suite.Assert().True(reconciliation.InitialBalance.Equal(balance))
	suite.Assert().True(reconciliation.Sum.Equal(decimal.RequireFromString("159.02")), "Sum is %s", reconciliation.Sum)
	suite.Assert().True(reconciliation.Balance.Equal(decimal.RequireFromString("239.12")), "Balance is %s", reconciliation.Balance)
}

func (suite *TestSuiteStandard) TestReconcileDetectsDrift() {
	envelope := suite.createTestEnvelope("10")

	// Change the balance without a transaction
	err := suite.store.Atomic(context.Background(), func(tx *store.Tx) error {
		e, err := tx.GetForUpdate(context.Background(), envelope.PublicID)
		if err != nil {
			return err
		}

		e.Balance = decimal.NewFromInt(11)
		return tx.Save(&e, "Balance")
	})
	suite.Require().NoError(err)

	reconciliation, err := suite.query.Reconcile(context.Background(), envelope.PublicID)
	suite.Require().NoError(err)
	suite.Assert().False(reconciliation.Consistent)
	suite.Assert().True(reconciliation.Expected.Equal(decimal.NewFromInt(10)))
}

func (suite *TestSuiteStandard) TestReconcileUnknownEnvelope() {
	_, err := suite.query.Reconcile(context.Background(), uuid.New())
	suite.Assert().ErrorIs(err, models.ErrResourceNotFound)
}
