package store_test

import (
	"context"
	"errors"
	"time"

	"github.com/envelope-zero/ledger/internal/models"
	"github.com/envelope-zero/ledger/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var errTest = errors.New("test error")

func (suite *TestSuiteStandard) TestGetForUpdateNotFound() {
	err := suite.store.Atomic(context.Background(), func(tx *store.Tx) error {
		_, err := tx.GetForUpdate(context.Background(), uuid.New())
		return err
	})

	suite.Assert().ErrorIs(err, models.ErrResourceNotFound)
	suite.Assert().Contains(err.Error(), "envelope matching your query")
}

func (suite *TestSuiteStandard) TestGetForUpdateTwice() {
	envelope := suite.createTestEnvelope("10")

	err := suite.store.Atomic(context.Background(), func(tx *store.Tx) error {
		_, err := tx.GetForUpdate(context.Background(), envelope.PublicID)
		if err != nil {
			return err
		}

		// The unit already holds the lock
		_, err = tx.GetForUpdate(context.Background(), envelope.PublicID)
		return err
	})
	suite.Assert().NoError(err)
}

func (suite *TestSuiteStandard) TestSaveSelectedFields() {
	envelope := suite.createTestEnvelope("100")
	modified := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	err := suite.store.Atomic(context.Background(), func(tx *store.Tx) error {
		e, err := tx.GetForUpdate(context.Background(), envelope.PublicID)
		if err != nil {
			return err
		}

		e.Balance = decimal.NewFromInt(150)
		e.Modified = modified
		e.Budget = decimal.NewFromInt(999)
		e.Name = "Changed"
		return tx.Save(&e, "Balance", "Modified")
	})
	suite.Require().NoError(err)

	saved, err := suite.store.Envelope(context.Background(), envelope.PublicID)
	suite.Require().NoError(err)
	suite.Assert().True(saved.Balance.Equal(decimal.NewFromInt(150)), "Balance is %s", saved.Balance)
	suite.Assert().Equal(modified, saved.Modified)
	suite.Assert().True(saved.Budget.Equal(decimal.NewFromInt(100)), "Budget must not have been saved, is %s", saved.Budget)
	suite.Assert().Equal("Groceries", saved.Name)
}

func (suite *TestSuiteStandard) TestSaveCreatorImmutable() {
	envelope := suite.createTestEnvelope("100")

	err := suite.store.Atomic(context.Background(), func(tx *store.Tx) error {
		e, err := tx.GetForUpdate(context.Background(), envelope.PublicID)
		if err != nil {
			return err
		}

		e.CreatorID = 42
		return tx.Save(&e, "CreatorID")
	})
	suite.Assert().ErrorIs(err, models.ErrCreatorImmutable)
}

func (suite *TestSuiteStandard) TestRollback() {
	envelope := suite.createTestEnvelope("100")

	err := suite.store.Atomic(context.Background(), func(tx *store.Tx) error {
		e, err := tx.GetForUpdate(context.Background(), envelope.PublicID)
		if err != nil {
			return err
		}

		e.Balance = decimal.Zero
		if err := tx.Save(&e, "Balance"); err != nil {
			return err
		}
		return errTest
	})
	suite.Assert().ErrorIs(err, errTest)

	saved, err := suite.store.Envelope(context.Background(), envelope.PublicID)
	suite.Require().NoError(err)
	suite.Assert().True(saved.Balance.Equal(decimal.NewFromInt(100)), "Balance must be unchanged, is %s", saved.Balance)
}

func (suite *TestSuiteStandard) TestRollbackOnPanic() {
	envelope := suite.createTestEnvelope("100")

	suite.Assert().Panics(func() {
		_ = suite.store.Atomic(context.Background(), func(tx *store.Tx) error {
			e, err := tx.GetForUpdate(context.Background(), envelope.PublicID)
			if err != nil {
				return err
			}

			e.Balance = decimal.Zero
			if err := tx.Save(&e, "Balance"); err != nil {
				return err
			}
			panic("boom")
		})
	})

	saved, err := suite.store.Envelope(context.Background(), envelope.PublicID)
	suite.Require().NoError(err)
	suite.Assert().True(saved.Balance.Equal(decimal.NewFromInt(100)), "Balance must be unchanged, is %s", saved.Balance)

	// The lock has been released
	err = suite.store.Atomic(context.Background(), func(tx *store.Tx) error {
		_, err := tx.GetForUpdate(context.Background(), envelope.PublicID)
		return err
	})
	suite.Assert().NoError(err)
}

func (suite *TestSuiteStandard) TestAppendFriendlyIDConflict() {
	envelope := suite.createTestEnvelope("0")
	transaction := models.Transaction{
		FriendlyID: "ABCDEFGH",
		EnvelopeID: envelope.PublicID,
		Type:       models.TransactionTypeDeposited,
		Delta:      decimal.NewFromInt(5),
		Created:    time.Now(),
	}
	suite.appendTestTransaction(transaction)

	err := suite.store.Atomic(context.Background(), func(tx *store.Tx) error {
		duplicate := transaction
		return tx.Append(&duplicate)
	})
	suite.Assert().ErrorIs(err, models.ErrFriendlyIDConflict)
}

func (suite *TestSuiteStandard) TestAppendUnknownEnvelope() {
	err := suite.store.Atomic(context.Background(), func(tx *store.Tx) error {
		return tx.Append(&models.Transaction{
			FriendlyID: "ABCDEFGH",
			EnvelopeID: uuid.New(),
			Type:       models.TransactionTypeDeposited,
			Created:    time.Now(),
		})
	})
	suite.Assert().ErrorIs(err, models.ErrResourceNotFound)
}

func (suite *TestSuiteStandard) TestCreateEnvelopeUnknownAccount() {
	err := suite.store.Atomic(context.Background(), func(tx *store.Tx) error {
		return tx.CreateEnvelope(&models.Envelope{Name: "Orphan", AccountID: uuid.New()})
	})
	suite.Assert().ErrorIs(err, models.ErrResourceNotFound)
}

func (suite *TestSuiteStandard) TestReferenceLookups() {
	var category models.Category
	err := suite.store.Atomic(context.Background(), func(tx *store.Tx) error {
		category = models.Category{Name: "Food"}
		return tx.CreateCategory(&category)
	})
	suite.Require().NoError(err)

	err = suite.store.Atomic(context.Background(), func(tx *store.Tx) error {
		c, err := tx.Category(context.Background(), category.PublicID)
		suite.Assert().Equal("Food", c.Name)
		return err
	})
	suite.Assert().NoError(err)

	err = suite.store.Atomic(context.Background(), func(tx *store.Tx) error {
		_, err := tx.Category(context.Background(), uuid.New())
		return err
	})
	suite.Assert().ErrorIs(err, models.ErrResourceNotFound)

	err = suite.store.Atomic(context.Background(), func(tx *store.Tx) error {
		_, err := tx.Account(context.Background(), uuid.New())
		return err
	})
	suite.Assert().ErrorIs(err, models.ErrResourceNotFound)
}

func (suite *TestSuiteStandard) TestTransactionsOrder() {
	envelope := suite.createTestEnvelope("0")
	early := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	// Inserted out of order, the two late transactions share the timestamp
	for _, t := range []struct {
		friendlyID string
		created    time.Time
	}{
		{"LATE0001", late},
		{"EARLY001", early},
		{"LATE0002", late},
	} {
		suite.appendTestTransaction(models.Transaction{
			FriendlyID: t.friendlyID,
			EnvelopeID: envelope.PublicID,
			Type:       models.TransactionTypeDeposited,
			Delta:      decimal.NewFromInt(1),
			Created:    t.created,
		})
	}

	transactions, err := suite.store.Transactions(context.Background(), envelope.PublicID)
	suite.Require().NoError(err)
	suite.Require().Len(transactions, 3)
	suite.Assert().Equal("EARLY001", transactions[0].FriendlyID)
	suite.Assert().Equal("LATE0001", transactions[1].FriendlyID)
	suite.Assert().Equal("LATE0002", transactions[2].FriendlyID)
	suite.Assert().Equal(time.UTC, transactions[0].Created.Location())
}

func (suite *TestSuiteStandard) TestTransactionsUnknownEnvelope() {
	_, err := suite.store.Transactions(context.Background(), uuid.New())
	suite.Assert().ErrorIs(err, models.ErrResourceNotFound)
}

func (suite *TestSuiteStandard) TestTransactionByFriendlyID() {
	envelope := suite.createTestEnvelope("0")
	suite.appendTestTransaction(models.Transaction{
		FriendlyID:  "FRIENDLY",
		EnvelopeID:  envelope.PublicID,
		Type:        models.TransactionTypeWithdrawn,
		Delta:       decimal.RequireFromString("-12.34"),
		Description: "Snacks",
		Created:     time.Now(),
	})

	transaction, err := suite.store.TransactionByFriendlyID(context.Background(), "FRIENDLY")
	suite.Require().NoError(err)
	suite.Assert().Equal("Snacks", transaction.Description)
	suite.Assert().True(transaction.Delta.Equal(decimal.RequireFromString("-12.34")))

	_, err = suite.store.TransactionByFriendlyID(context.Background(), "MISSING0")
	suite.Assert().ErrorIs(err, models.ErrResourceNotFound)
	suite.Assert().Contains(err.Error(), "transaction matching your query")
}

func (suite *TestSuiteStandard) TestTransactionsImmutable() {
	envelope := suite.createTestEnvelope("0")
	transaction := suite.appendTestTransaction(models.Transaction{
		FriendlyID: "IMMUTABL",
		EnvelopeID: envelope.PublicID,
		Type:       models.TransactionTypeDeposited,
		Delta:      decimal.NewFromInt(1),
		Created:    time.Now(),
	})

	err := suite.db.Model(&transaction).Update("Comment", "changed").Error
	suite.Assert().ErrorIs(err, models.ErrTransactionImmutable)

	err = suite.db.Delete(&transaction).Error
	suite.Assert().ErrorIs(err, models.ErrTransactionImmutable)
}
