package models

import (
	"fmt"
	"unicode/utf8"
)

// maxLength returns ErrFieldTooLong when value has more than max characters.
func maxLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%w: %s must be at most %d characters", ErrFieldTooLong, field, max)
	}
	return nil
}
