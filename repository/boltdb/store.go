package boltdb

import (
	"context"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/artify3d/client/domain"
	"github.com/artify3d/client/repository"
)

// Store is a bbolt-backed KeyValueStore. It is the default local durable
// store for the persisted identity; access is synchronous and the file is
// not shared with any other writer.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

var _ repository.KeyValueStore = (*Store)(nil)

// Open initializes the bolt file and ensures the bucket exists.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = "session"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, domain.WrapError(domain.ErrCodeStorage, "create store directory", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeStorage, "open store", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, domain.WrapError(domain.ErrCodeStorage, "create bucket", err)
	}

	return &Store{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if s == nil || s.db == nil {
		return nil, domain.WrapError(domain.ErrCodeStorage, "get", bolt.ErrDatabaseNotOpen)
	}
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if raw := tx.Bucket(s.bucket).Get([]byte(key)); raw != nil {
			value = append([]byte(nil), raw...)
		}
		return nil
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeStorage, "get", err)
	}
	if value == nil {
		return nil, domain.ErrKeyNotFound
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if s == nil || s.db == nil {
		return domain.WrapError(domain.ErrCodeStorage, "set", bolt.ErrDatabaseNotOpen)
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), value)
	})
	if err != nil {
		return domain.WrapError(domain.ErrCodeStorage, "set", err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if s == nil || s.db == nil {
		return domain.WrapError(domain.ErrCodeStorage, "remove", bolt.ErrDatabaseNotOpen)
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
	if err != nil {
		return domain.WrapError(domain.ErrCodeStorage, "remove", err)
	}
	return nil
}

// Close closes the bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
