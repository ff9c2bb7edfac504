// Package boltstore persists the conversation store's records in a single
// bbolt database file: one bucket of key→JSON-blob pairs, the durable
// equivalent of the original browser localStorage.
package boltstore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketName = "session"

// Store implements the conversation domain's Storage port over a bbolt file.
// The database is opened per operation so no file lock is held between the
// store's synchronous read/write bursts.
type Store struct {
	path string
}

// New creates a Store backed by the bbolt file at path, creating the parent
// directory if needed.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("boltstore: create dir: %w", err)
	}
	return &Store{path: path}, nil
}

// Read returns the blob stored under key, or (nil, false) if the key is
// absent or the database cannot be opened. Open failures read as absent so
// a damaged file degrades to the empty-storage path instead of an error.
func (s *Store) Read(key string) ([]byte, bool) {
	db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, false
	}
	defer func() { _ = db.Close() }()

	var out []byte
	_ = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if out == nil {
		return nil, false
	}
	return out, true
}

// Write stores data under key, replacing any previous value.
func (s *Store) Write(key string, data []byte) error {
	db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return fmt.Errorf("boltstore: open: %w", err)
	}
	defer func() { _ = db.Close() }()

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}
