package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/envelope-zero/ledger/internal/friendlyid"
	"github.com/envelope-zero/ledger/internal/models"
)

var (
	ErrInvalidAmount      = errors.New("the amount must be positive")
	ErrNonSufficientFunds = errors.New("the envelope does not have sufficient funds")
)

// known are the errors that are returned to callers unchanged.
var known = []error{
	ErrInvalidAmount,
	ErrNonSufficientFunds,
	models.ErrGeneral,
	models.ErrResourceNotFound,
	models.ErrLockTimeout,
	models.ErrFriendlyIDConflict,
	models.ErrNameRequired,
	models.ErrFieldTooLong,
	models.ErrCreatorImmutable,
	models.ErrTransactionImmutable,
	friendlyid.ErrOutOfRange,
	context.Canceled,
	context.DeadlineExceeded,
}

// translate wraps errors that are not part of the error taxonomy
// with models.ErrGeneral.
func translate(err error) error {
	if err == nil {
		return nil
	}

	for _, k := range known {
		if errors.Is(err, k) {
			return err
		}
	}

	return fmt.Errorf("%w: %w", models.ErrGeneral, err)
}
