package credential

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/MrEthical07/pinlock/pin"
)

const recordFormatVersionCurrent = 1

const (
	algPBKDF2SHA256 byte = 1
	algArgon2id     byte = 2
)

func encodeAlgorithm(a pin.Algorithm) (byte, error) {
	switch a {
	case pin.AlgorithmPBKDF2SHA256:
		return algPBKDF2SHA256, nil
	case pin.AlgorithmArgon2id:
		return algArgon2id, nil
	default:
		return 0, fmt.Errorf("%w: %q", pin.ErrUnsupportedAlgorithm, a)
	}
}

func decodeAlgorithm(b byte) (pin.Algorithm, error) {
	switch b {
	case algPBKDF2SHA256:
		return pin.AlgorithmPBKDF2SHA256, nil
	case algArgon2id:
		return pin.AlgorithmArgon2id, nil
	default:
		return "", fmt.Errorf("unknown algorithm id %d", b)
	}
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMilli(v).UTC()
}

// Encode serializes r into the current binary record format.
func Encode(r *Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordFormatVersionCurrent)

	alg, err := encodeAlgorithm(r.Algorithm)
	if err != nil {
		return nil, err
	}
	buf.WriteByte(alg)

	if err := binary.Write(&buf, binary.BigEndian, r.Iterations); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.Memory); err != nil {
		return nil, err
	}
	buf.WriteByte(r.Parallelism)

	if len(r.Salt) == 0 || len(r.Salt) > 255 {
		return nil, errors.New("salt length out of range")
	}
	buf.WriteByte(byte(len(r.Salt)))
	buf.Write(r.Salt)

	if len(r.SecretHash) == 0 || len(r.SecretHash) > 255 {
		return nil, errors.New("secret hash length out of range")
	}
	buf.WriteByte(byte(len(r.SecretHash)))
	buf.Write(r.SecretHash)

	if err := binary.Write(&buf, binary.BigEndian, toMillis(r.CreatedAt)); err != nil {
		return nil, err
	}

	if r.FailedAttempts < 0 || int64(r.FailedAttempts) > math.MaxUint32 {
		return nil, errors.New("failed attempts out of range")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint32(r.FailedAttempts)); err != nil {
		return nil, err
	}

	if err := binary.Write(&buf, binary.BigEndian, toMillis(r.LockoutUntil)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a blob produced by Encode. Any malformed input yields an
// error wrapping ErrCorrupt.
func Decode(data []byte) (*Record, error) {
	r, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return r, nil
}

func decode(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordFormatVersionCurrent {
		return nil, fmt.Errorf("invalid record version %d", version)
	}

	r := &Record{}

	algID, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if r.Algorithm, err = decodeAlgorithm(algID); err != nil {
		return nil, err
	}

	if err := binary.Read(reader, binary.BigEndian, &r.Iterations); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &r.Memory); err != nil {
		return nil, err
	}
	if r.Parallelism, err = reader.ReadByte(); err != nil {
		return nil, err
	}

	saltLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if saltLen == 0 {
		return nil, errors.New("empty salt")
	}
	r.Salt = make([]byte, saltLen)
	if _, err := io.ReadFull(reader, r.Salt); err != nil {
		return nil, err
	}

	hashLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if hashLen == 0 {
		return nil, errors.New("empty secret hash")
	}
	r.SecretHash = make([]byte, hashLen)
	if _, err := io.ReadFull(reader, r.SecretHash); err != nil {
		return nil, err
	}

	var createdAt int64
	if err := binary.Read(reader, binary.BigEndian, &createdAt); err != nil {
		return nil, err
	}
	r.CreatedAt = fromMillis(createdAt)

	var failures uint32
	if err := binary.Read(reader, binary.BigEndian, &failures); err != nil {
		return nil, err
	}
	r.FailedAttempts = int(failures)

	var lockoutUntil int64
	if err := binary.Read(reader, binary.BigEndian, &lockoutUntil); err != nil {
		return nil, err
	}
	r.LockoutUntil = fromMillis(lockoutUntil)

	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes")
	}
	return r, nil
}
