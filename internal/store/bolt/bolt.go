package bolt

import (
	"context"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"
)

var bucketName = []byte("ledger")

// Store keeps every blob in one bucket of a local bbolt file.
type Store struct {
	db *bbolt.DB
}

func New(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt file %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var blob []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		val := tx.Bucket(bucketName).Get([]byte(key))
		if val != nil {
			// val is only valid inside the transaction
			blob = append([]byte(nil), val...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return blob, blob != nil, nil
}

func (s *Store) Save(ctx context.Context, key string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), blob)
	})
}

func (s *Store) SaveBatch(ctx context.Context, blobs map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		for key, blob := range blobs {
			if err := bucket.Put([]byte(key), blob); err != nil {
				return fmt.Errorf("put %s: %w", key, err)
			}
		}
		return nil
	})
}
