package pin

import (
	"errors"
	"testing"
)

func TestFormatValidate(t *testing.T) {
	f := DefaultFormat()

	tests := []struct {
		pin     string
		wantErr error
	}{
		{pin: "1234"},
		{pin: "12345"},
		{pin: "123456"},
		{pin: "0000"},
		{pin: "", wantErr: ErrEmpty},
		{pin: "12a4", wantErr: ErrNotNumeric},
		{pin: " 1234", wantErr: ErrNotNumeric},
		{pin: "١٢٣٤", wantErr: ErrNotNumeric},
		{pin: "123", wantErr: ErrTooShort},
		{pin: "1234567", wantErr: ErrTooLong},
	}

	for _, tt := range tests {
		err := f.Validate(tt.pin)
		if tt.wantErr == nil {
			if err != nil {
				t.Fatalf("Validate(%q): unexpected error %v", tt.pin, err)
			}
			continue
		}
		if !errors.Is(err, tt.wantErr) {
			t.Fatalf("Validate(%q): expected %v, got %v", tt.pin, tt.wantErr, err)
		}
	}
}

func TestFormatCustomBounds(t *testing.T) {
	f := Format{MinLength: 6, MaxLength: 8}
	if err := f.Validate("12345"); !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
	if err := f.Validate("12345678"); err != nil {
		t.Fatalf("expected 8 digits to pass, got %v", err)
	}
}
