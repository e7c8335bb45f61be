package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const recordFormatVersion = 1

const timesLen = 16

// Encode serializes r as:
//
//	[version:1][idLen:1][identityID][issuedAt:8 BE][expiresAt:8 BE]
//
// The token hash is the Redis key and is not part of the payload.
func Encode(r *Record) ([]byte, error) {
	if r.IdentityID == "" {
		return nil, errors.New("identityID empty")
	}
	if len(r.IdentityID) > 255 {
		return nil, errors.New("identityID too long")
	}
	if r.ExpiresAt <= r.IssuedAt {
		return nil, errors.New("expiresAt must be after issuedAt")
	}

	var buf bytes.Buffer
	buf.Grow(2 + len(r.IdentityID) + timesLen)
	buf.WriteByte(recordFormatVersion)
	buf.WriteByte(byte(len(r.IdentityID)))
	buf.WriteString(r.IdentityID)
	buf.Write(encodeTimes(r.IssuedAt, r.ExpiresAt))

	return buf.Bytes(), nil
}

// encodeTimes is the fixed-size tail of a record. Rotation rewrites only
// this tail inside Redis.
func encodeTimes(issuedAt, expiresAt int64) []byte {
	out := make([]byte, timesLen)
	binary.BigEndian.PutUint64(out[:8], uint64(issuedAt))
	binary.BigEndian.PutUint64(out[8:], uint64(expiresAt))
	return out
}

// Decode parses a payload produced by Encode. TokenHash is left zero.
func Decode(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordFormatVersion {
		return nil, fmt.Errorf("unsupported session record version %d", version)
	}

	idLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if idLen == 0 {
		return nil, errors.New("empty identityID")
	}
	id := make([]byte, idLen)
	if _, err := io.ReadFull(reader, id); err != nil {
		return nil, err
	}

	r := &Record{IdentityID: string(id)}
	if err := binary.Read(reader, binary.BigEndian, &r.IssuedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &r.ExpiresAt); err != nil {
		return nil, err
	}
	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes in session record")
	}

	return r, nil
}
