package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

const sessionFormatVersionCurrent = 1

// ErrCorrupt is returned when a stored session blob cannot be decoded.
var ErrCorrupt = errors.New("session record corrupt")

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

// Encode serializes s into the current binary format.
func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(sessionFormatVersionCurrent)

	if s.Token == "" {
		return nil, errors.New("empty token")
	}
	if len(s.Token) > 255 {
		return nil, errors.New("token too long")
	}
	buf.WriteByte(byte(len(s.Token)))
	buf.WriteString(s.Token)

	if err := binary.Write(&buf, binary.BigEndian, toMillis(s.CreatedAt)); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, toMillis(s.ExpiresAt)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a blob produced by Encode. Errors wrap ErrCorrupt.
func Decode(data []byte) (*Session, error) {
	s, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return s, nil
}

func decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != sessionFormatVersionCurrent {
		return nil, fmt.Errorf("unsupported session schema version %d", version)
	}

	tokenLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if tokenLen == 0 {
		return nil, errors.New("empty token")
	}
	token := make([]byte, tokenLen)
	if _, err := io.ReadFull(reader, token); err != nil {
		return nil, err
	}

	var createdAt, expiresAt int64
	if err := binary.Read(reader, binary.BigEndian, &createdAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &expiresAt); err != nil {
		return nil, err
	}
	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes")
	}

	return &Session{
		Token:     string(token),
		CreatedAt: fromMillis(createdAt),
		ExpiresAt: fromMillis(expiresAt),
	}, nil
}
