package models_test

import (
	"strings"

	"github.com/envelope-zero/ledger/internal/models"
)

func (suite *TestSuiteStandard) TestEnvelopeTrimWhitespace() {
	account := suite.createTestAccount()
	envelope := models.Envelope{
		Name:        "\t Rent ",
		Description: " Paid on the first ",
		AccountID:   account.PublicID,
	}
	suite.Require().NoError(suite.db.Create(&envelope).Error)

	suite.Assert().Equal("Rent", envelope.Name)
	suite.Assert().Equal("Paid on the first", envelope.Description)
}

func (suite *TestSuiteStandard) TestEnvelopeValidation() {
	account := suite.createTestAccount()

	tests := []struct {
		name        string
		envelope    string
		description string
		err         error
	}{
		{"Empty name", "", "", models.ErrNameRequired},
		{"Whitespace name", "   ", "", models.ErrNameRequired},
		{"Name too long", strings.Repeat("n", 51), "", models.ErrFieldTooLong},
		{"Description too long", "Rent", strings.Repeat("d", 201), models.ErrFieldTooLong},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			err := suite.db.Create(&models.Envelope{Name: tt.envelope, Description: tt.description, AccountID: account.PublicID}).Error
			suite.Assert().ErrorIs(err, tt.err)
		})
	}

	// Multi-byte characters count as one
	err := suite.db.Create(&models.Envelope{Name: strings.Repeat("ü", 50), AccountID: account.PublicID}).Error
	suite.Assert().NoError(err)
}

func (suite *TestSuiteStandard) TestEnvelopeCreatorImmutable() {
	envelope := suite.createTestEnvelope()

	err := suite.db.Model(&envelope).Select("CreatorID").Updates(models.Envelope{CreatorID: 2}).Error
	suite.Assert().ErrorIs(err, models.ErrCreatorImmutable)

	err = suite.db.Model(&envelope).Update("CreatorID", 2).Error
	suite.Assert().ErrorIs(err, models.ErrCreatorImmutable)

	err = suite.db.Model(&envelope).Select("Name").Updates(models.Envelope{Name: "Food"}).Error
	suite.Assert().NoError(err)
}
