package pin

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
)

func fastParams() Params {
	return Params{
		Algorithm:  AlgorithmPBKDF2SHA256,
		Iterations: 1000,
		KeyLength:  32,
	}
}

func TestDeriveDeterministic(t *testing.T) {
	salt := bytes.Repeat([]byte{7}, 16)

	a, err := Derive("1234", salt, fastParams())
	if err != nil {
		t.Fatalf("Derive error: %v", err)
	}
	b, err := Derive("1234", salt, fastParams())
	if err != nil {
		t.Fatalf("Derive error: %v", err)
	}

	if !Equal(a, b) {
		t.Fatal("expected identical inputs to derive identical secrets")
	}
	if len(a) != 32 {
		t.Fatalf("expected 32-byte secret, got %d", len(a))
	}
}

func TestDeriveDistinctPINs(t *testing.T) {
	salt := bytes.Repeat([]byte{1}, 16)

	pins := []string{"0000", "0001", "1234", "4321", "123456", "999999"}
	seen := make(map[string]string, len(pins))
	for _, p := range pins {
		secret, err := Derive(p, salt, fastParams())
		if err != nil {
			t.Fatalf("Derive(%q) error: %v", p, err)
		}
		key := hex.EncodeToString(secret)
		if prev, ok := seen[key]; ok {
			t.Fatalf("pins %q and %q derived the same secret", prev, p)
		}
		seen[key] = p
	}
}

func TestDeriveSaltChangesSecret(t *testing.T) {
	a, err := Derive("1234", bytes.Repeat([]byte{1}, 16), fastParams())
	if err != nil {
		t.Fatalf("Derive error: %v", err)
	}
	b, err := Derive("1234", bytes.Repeat([]byte{2}, 16), fastParams())
	if err != nil {
		t.Fatalf("Derive error: %v", err)
	}
	if Equal(a, b) {
		t.Fatal("expected different salts to derive different secrets")
	}
}

func TestDerivePBKDF2KnownVector(t *testing.T) {
	// RFC 7914 section 11, PBKDF2-HMAC-SHA256 with c=1.
	want, _ := hex.DecodeString("55ac046e56e3089fec1691c22544b605f94185216dde0465e68b9d57c20dacbc" +
		"49ca9cccf179b645991664b39d77ef317c71b845b1e30bd509112041d3a19783")

	got, err := Derive("passwd", []byte("salt"), Params{
		Algorithm:  AlgorithmPBKDF2SHA256,
		Iterations: 1,
		KeyLength:  64,
	})
	if err != nil {
		t.Fatalf("Derive error: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("unexpected PBKDF2 output:\n got %x\nwant %x", got, want)
	}
}

func TestDeriveDefaultParams(t *testing.T) {
	p := DefaultParams()
	if p.Iterations != 150000 || p.KeyLength != 32 || p.Algorithm != AlgorithmPBKDF2SHA256 {
		t.Fatalf("unexpected defaults: %+v", p)
	}

	secret, err := Derive("4242", bytes.Repeat([]byte{9}, 16), p)
	if err != nil {
		t.Fatalf("Derive error: %v", err)
	}
	if len(secret) != 32 {
		t.Fatalf("expected 256-bit secret, got %d bytes", len(secret))
	}
}

func TestDeriveArgon2id(t *testing.T) {
	p := Params{
		Algorithm:   AlgorithmArgon2id,
		Iterations:  1,
		KeyLength:   32,
		Memory:      8 * 1024,
		Parallelism: 1,
	}
	salt := bytes.Repeat([]byte{3}, 16)

	a, err := Derive("1234", salt, p)
	if err != nil {
		t.Fatalf("Derive error: %v", err)
	}
	b, err := Derive("1234", salt, p)
	if err != nil {
		t.Fatalf("Derive error: %v", err)
	}
	if !Equal(a, b) {
		t.Fatal("expected argon2id derivation to be deterministic")
	}

	pbkdf, err := Derive("1234", salt, fastParams())
	if err != nil {
		t.Fatalf("Derive error: %v", err)
	}
	if Equal(a, pbkdf) {
		t.Fatal("expected argon2id and pbkdf2 secrets to differ")
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr error
	}{
		{name: "defaults", params: DefaultParams()},
		{name: "zero iterations", params: Params{Algorithm: AlgorithmPBKDF2SHA256, KeyLength: 32}, wantErr: ErrInvalidParams},
		{name: "short key", params: Params{Algorithm: AlgorithmPBKDF2SHA256, Iterations: 1, KeyLength: 8}, wantErr: ErrInvalidParams},
		{name: "unknown algorithm", params: Params{Algorithm: "md5", Iterations: 1, KeyLength: 32}, wantErr: ErrUnsupportedAlgorithm},
		{name: "argon2 low memory", params: Params{Algorithm: AlgorithmArgon2id, Iterations: 1, KeyLength: 32, Memory: 1024, Parallelism: 1}, wantErr: ErrInvalidParams},
		{name: "argon2 zero parallelism", params: Params{Algorithm: AlgorithmArgon2id, Iterations: 1, KeyLength: 32, Memory: 8192}, wantErr: ErrInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected valid params, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDeriveRejectsEmptySalt(t *testing.T) {
	if _, err := Derive("1234", nil, fastParams()); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams for empty salt, got %v", err)
	}
}

func TestGenerateSalt(t *testing.T) {
	a, err := GenerateSalt(nil, 16)
	if err != nil {
		t.Fatalf("GenerateSalt error: %v", err)
	}
	b, err := GenerateSalt(nil, 16)
	if err != nil {
		t.Fatalf("GenerateSalt error: %v", err)
	}
	if len(a) != 16 || len(b) != 16 {
		t.Fatalf("unexpected salt lengths %d/%d", len(a), len(b))
	}
	if bytes.Equal(a, b) {
		t.Fatal("expected two random salts to differ")
	}

	if _, err := GenerateSalt(nil, 8); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected short salt to be rejected, got %v", err)
	}
}

func TestGenerateSaltReaderFailure(t *testing.T) {
	if _, err := GenerateSalt(bytes.NewReader([]byte{1, 2, 3}), 16); err == nil {
		t.Fatal("expected short reader to fail salt generation")
	}
}

func TestEqualLengthMismatch(t *testing.T) {
	if Equal([]byte{1, 2, 3}, []byte{1, 2}) {
		t.Fatal("expected length mismatch to compare unequal")
	}
	if !Equal([]byte{}, []byte{}) {
		t.Fatal("expected empty slices to compare equal")
	}
}

func BenchmarkDerivePBKDF2(b *testing.B) {
	salt := bytes.Repeat([]byte{3}, DefaultSaltLength)
	p := DefaultParams()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Derive("123456", salt, p); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDeriveArgon2id(b *testing.B) {
	salt := bytes.Repeat([]byte{3}, DefaultSaltLength)
	p := Params{Algorithm: AlgorithmArgon2id, Iterations: 3, KeyLength: 32, Memory: 64 * 1024, Parallelism: 2}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Derive("123456", salt, p); err != nil {
			b.Fatal(err)
		}
	}
}
