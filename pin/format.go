package pin

import (
	"errors"
	"fmt"
)

const (
	// DefaultMinLength is the shortest accepted PIN.
	DefaultMinLength = 4
	// DefaultMaxLength is the longest accepted PIN.
	DefaultMaxLength = 6
)

var (
	ErrEmpty      = errors.New("pin is required")
	ErrNotNumeric = errors.New("pin must contain only digits")
	ErrTooShort   = errors.New("pin is too short")
	ErrTooLong    = errors.New("pin is too long")
)

// Format holds the PIN shape rules.
type Format struct {
	MinLength int
	MaxLength int
}

// DefaultFormat accepts 4 to 6 ASCII digits.
func DefaultFormat() Format {
	return Format{MinLength: DefaultMinLength, MaxLength: DefaultMaxLength}
}

// Validate checks pin against f. The returned error wraps one of ErrEmpty,
// ErrNotNumeric, ErrTooShort or ErrTooLong.
func (f Format) Validate(pin string) error {
	if pin == "" {
		return ErrEmpty
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return ErrNotNumeric
		}
	}
	if len(pin) < f.MinLength {
		return fmt.Errorf("%w: must be at least %d digits", ErrTooShort, f.MinLength)
	}
	if f.MaxLength > 0 && len(pin) > f.MaxLength {
		return fmt.Errorf("%w: must be no more than %d digits", ErrTooLong, f.MaxLength)
	}
	return nil
}
