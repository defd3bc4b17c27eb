package peerbook

import (
	"bytes"
	"encoding/gob"
	"errors"
	"time"
)

var (
	ErrEntryNotFound  = errors.New("peer entry not found")
	ErrBucketNotFound = errors.New("bucket not found")
	ErrNilDB          = errors.New("database connection is nil")
	ErrEmptyAddress   = errors.New("peer address is empty")
)

// Entry is what the book remembers about a peer across restarts.
type Entry struct {
	Address    string
	Nickname   string
	FirstSeen  time.Time
	LastSeen   time.Time
	HelloCount uint64
}

type observation struct {
	address  string
	nickname string
	at       time.Time
}

// Serializer кодирует записи для хранения в bucket
type Serializer interface {
	Serialize(v any) ([]byte, error)
	Deserialize(data []byte, v any) error
}

type GobSerializer struct{}

func (s *GobSerializer) Serialize(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *GobSerializer) Deserialize(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
