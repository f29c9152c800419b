package models

import (
	"errors"
)

var (
	ErrGeneral              = errors.New("an error occurred in the storage layer during your request")
	ErrResourceNotFound     = errors.New("there is no")
	ErrLockTimeout          = errors.New("the envelope is locked by another operation, please try again")
	ErrFriendlyIDConflict   = errors.New("a transaction with this friendly id already exists")
	ErrTransactionImmutable = errors.New("transactions can not be modified or deleted")
	ErrCreatorImmutable     = errors.New("the creator of an envelope can not be changed")
)

// Validation errors
var (
	ErrNameRequired           = errors.New("the name must not be empty")
	ErrFieldTooLong           = errors.New("the value is too long")
	ErrTransactionTypeInvalid = errors.New("the transaction type is invalid")
	ErrCategoryNameNotUnique  = errors.New("the category name must be unique")
)
