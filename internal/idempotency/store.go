// Package idempotency replays stored responses for retried mutating requests.
//
// Responses are kept in a BoltDB file keyed by the client's Idempotency-Key.
// A key is bound to the request that first used it; reusing it for a
// different request is rejected.
package idempotency

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "github.com/boltdb/bolt"
)

const bucketName = "idempotency_keys"

// ErrNotFound is returned when no response is stored for a key.
var ErrNotFound = errors.New("idempotency key not found")

// Record is a stored response.
type Record struct {
	Fingerprint string    `json:"fingerprint"`
	Status      int       `json:"status"`
	ContentType string    `json:"contentType"`
	Body        []byte    `json:"body"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the key store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create idempotency store directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open idempotency store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(key string) (*Record, error) {
	var rec Record
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketName)).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Save stores rec under key unless a record already exists. It returns the
// record that is stored afterwards and whether this call wrote it.
func (s *Store) Save(key string, rec Record) (*Record, bool, error) {
	var (
		result  Record
		created bool
	)
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if existing := b.Get([]byte(key)); existing != nil {
			return json.Unmarshal(existing, &result)
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now().UTC()
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		result, created = rec, true
		return b.Put([]byte(key), data)
	})
	if err != nil {
		return nil, false, err
	}
	return &result, created, nil
}

// Purge deletes records created before cutoff and returns how many went.
func (s *Store) Purge(cutoff time.Time) (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil || rec.CreatedAt.Before(cutoff) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}
