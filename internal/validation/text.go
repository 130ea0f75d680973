package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxVendorNoteLength      = 2000
	MaxRejectionReasonLength = 2000
	MaxCommentLength         = 1000
	MinCartQuantity          = 1
	MaxCartQuantity          = 99
)

// RequiredText trims s and requires 1..max characters.
func RequiredText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%s is required", field)
	}
	if utf8.RuneCountInString(s) > max {
		return "", fmt.Errorf("%s must not exceed %d characters", field, max)
	}
	return s, nil
}

// OptionalText trims s and allows 0..max characters.
func OptionalText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > max {
		return "", fmt.Errorf("%s must not exceed %d characters", field, max)
	}
	return s, nil
}

// ValidateQuantity bounds a cart line quantity.
func ValidateQuantity(q int) error {
	if q < MinCartQuantity || q > MaxCartQuantity {
		return fmt.Errorf("quantity must be between %d and %d", MinCartQuantity, MaxCartQuantity)
	}
	return nil
}
