package storage

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"threatdash/pkg/logger"
)

// BoltBackend keeps one bucket per collection with big-endian id keys, so
// cursor order is id order
type BoltBackend struct {
	db     *bolt.DB
	logger *logger.Logger
}

// NewBoltBackend opens (or creates) the database file at path
func NewBoltBackend(path string, timeout time.Duration, log *logger.Logger) (*BoltBackend, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create %s", dir)
		}
	}
	if timeout <= 0 {
		timeout = time.Second
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, errors.Wrapf(err, "open bolt database %s", path)
	}

	log = log.WithComponent("storage.bolt")
	log.Info().Str("path", path).Msg("using bolt storage")
	return &BoltBackend{db: db, logger: log}, nil
}

func (b *BoltBackend) Name() string { return BackendBolt }

func itob(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

func btoi(k []byte) int64 {
	return int64(binary.BigEndian.Uint64(k))
}

// cloneBytes copies a value out of a bolt page, which is only valid for the
// lifetime of the transaction
func cloneBytes(v []byte) []byte {
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

func (b *BoltBackend) List(_ context.Context, collection string) ([][]byte, error) {
	docs := [][]byte{}
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(collection))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, v []byte) error {
			docs = append(docs, cloneBytes(v))
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", collection)
	}
	return docs, nil
}

func (b *BoltBackend) Get(_ context.Context, collection string, id int64) ([]byte, error) {
	var doc []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(collection))
		if bucket == nil {
			return ErrNotFound
		}
		v := bucket.Get(itob(id))
		if v == nil {
			return ErrNotFound
		}
		doc = cloneBytes(v)
		return nil
	})
	return doc, err
}

func (b *BoltBackend) Insert(_ context.Context, collection string, build BuildFunc) (int64, error) {
	var id int64
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return errors.Wrapf(err, "create bucket %s", collection)
		}

		id = 1
		if k, _ := bucket.Cursor().Last(); k != nil {
			id = btoi(k) + 1
		}

		doc, err := build(id)
		if err != nil {
			return err
		}
		return bucket.Put(itob(id), doc)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (b *BoltBackend) Replace(_ context.Context, collection string, id int64, doc []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(collection))
		if bucket == nil || bucket.Get(itob(id)) == nil {
			return ErrNotFound
		}
		return bucket.Put(itob(id), doc)
	})
}

func (b *BoltBackend) Delete(_ context.Context, collection string, id int64) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(collection))
		if bucket == nil || bucket.Get(itob(id)) == nil {
			return ErrNotFound
		}
		return bucket.Delete(itob(id))
	})
}

func (b *BoltBackend) Truncate(_ context.Context, collection string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		err := tx.DeleteBucket([]byte(collection))
		if err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return errors.Wrapf(err, "truncate %s", collection)
		}
		return nil
	})
}

func (b *BoltBackend) Ping(context.Context) error {
	return b.db.View(func(*bolt.Tx) error { return nil })
}

func (b *BoltBackend) Close() error {
	return b.db.Close()
}
