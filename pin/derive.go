package pin

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// Algorithm identifies a key-derivation function.
type Algorithm string

const (
	// AlgorithmPBKDF2SHA256 is PBKDF2 with HMAC-SHA256.
	AlgorithmPBKDF2SHA256 Algorithm = "pbkdf2-sha256"
	// AlgorithmArgon2id is Argon2id; Iterations maps to the time cost.
	AlgorithmArgon2id Algorithm = "argon2id"
)

const (
	// DefaultIterations is the PBKDF2 work factor for new credentials.
	DefaultIterations uint32 = 150000
	// DefaultKeyLength is the derived secret size in bytes (256 bits).
	DefaultKeyLength uint32 = 32
	// DefaultSaltLength is the salt size in bytes for new credentials.
	DefaultSaltLength = 16

	// MinSaltLength is the smallest salt accepted by GenerateSalt.
	MinSaltLength = 16

	minKeyLength         uint32 = 16
	minArgon2MemoryKB    uint32 = 8 * 1024
	minArgon2Parallelism uint8  = 1
)

var (
	// ErrUnsupportedAlgorithm is returned for unknown Algorithm values.
	ErrUnsupportedAlgorithm = errors.New("unsupported pin derivation algorithm")
	// ErrInvalidParams is returned when derivation parameters are too weak or malformed.
	ErrInvalidParams = errors.New("invalid pin derivation parameters")
)

// Params is the complete set of inputs, besides PIN and salt, that determine a
// derived secret. Params are persisted next to every credential so records stay
// verifiable after defaults change.
type Params struct {
	Algorithm   Algorithm
	Iterations  uint32
	KeyLength   uint32
	Memory      uint32 // argon2id only, in KiB
	Parallelism uint8  // argon2id only
}

// DefaultParams returns PBKDF2-SHA256 with 150,000 iterations and a 32-byte key.
func DefaultParams() Params {
	return Params{
		Algorithm:  AlgorithmPBKDF2SHA256,
		Iterations: DefaultIterations,
		KeyLength:  DefaultKeyLength,
	}
}

// Validate reports whether p can be used for derivation.
func (p Params) Validate() error {
	if p.Iterations < 1 {
		return fmt.Errorf("%w: iterations must be >= 1", ErrInvalidParams)
	}
	if p.KeyLength < minKeyLength {
		return fmt.Errorf("%w: key length must be >= %d", ErrInvalidParams, minKeyLength)
	}

	switch p.Algorithm {
	case AlgorithmPBKDF2SHA256:
		return nil
	case AlgorithmArgon2id:
		if p.Memory < minArgon2MemoryKB {
			return fmt.Errorf("%w: argon2id memory must be >= %d KiB", ErrInvalidParams, minArgon2MemoryKB)
		}
		if p.Parallelism < minArgon2Parallelism {
			return fmt.Errorf("%w: argon2id parallelism must be >= 1", ErrInvalidParams)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, p.Algorithm)
	}
}

// Derive turns pin and salt into a KeyLength-byte secret. The same inputs
// always produce the same output.
func Derive(pin string, salt []byte, p Params) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(salt) == 0 {
		return nil, fmt.Errorf("%w: empty salt", ErrInvalidParams)
	}

	// PIN processing uses raw string bytes exactly as provided (no Unicode normalization).
	switch p.Algorithm {
	case AlgorithmArgon2id:
		return argon2.IDKey([]byte(pin), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength), nil
	default:
		return pbkdf2.Key([]byte(pin), salt, int(p.Iterations), int(p.KeyLength), sha256.New), nil
	}
}

// GenerateSalt reads n random bytes from r. A nil r means crypto/rand.
func GenerateSalt(r io.Reader, n int) ([]byte, error) {
	if n < MinSaltLength {
		return nil, fmt.Errorf("%w: salt length must be >= %d", ErrInvalidParams, MinSaltLength)
	}
	if r == nil {
		r = rand.Reader
	}

	salt := make([]byte, n)
	if _, err := io.ReadFull(r, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// Equal compares two derived secrets. Every byte is inspected regardless of
// where the first mismatch occurs; only the lengths leak.
func Equal(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
