// Package storage persists records as JSON documents keyed by collection
// and integer id. Three interchangeable backends are provided: flat JSON
// files, a PostgreSQL JSONB table and an embedded bbolt database.
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"threatdash/internal/config"
	"threatdash/internal/infrastructure/database"
	"threatdash/pkg/logger"
)

// ErrNotFound is returned when no document has the requested id
var ErrNotFound = errors.New("record not found")

// BuildFunc produces the document to store once its id is known
type BuildFunc func(id int64) ([]byte, error)

// Backend stores raw JSON documents. List returns documents in storage order.
// Insert assigns id = (highest existing id) + 1.
type Backend interface {
	Name() string
	List(ctx context.Context, collection string) ([][]byte, error)
	Get(ctx context.Context, collection string, id int64) ([]byte, error)
	Insert(ctx context.Context, collection string, build BuildFunc) (int64, error)
	Replace(ctx context.Context, collection string, id int64, doc []byte) error
	Delete(ctx context.Context, collection string, id int64) error
	Truncate(ctx context.Context, collection string) error
	Ping(ctx context.Context) error
	Close() error
}

// Backend names accepted by Open
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendBolt     = "bolt"
)

// Open creates the backend selected by cfg.Backend
func Open(ctx context.Context, cfg config.StorageConfig, dbCfg config.DatabaseConfig, log *logger.Logger) (Backend, error) {
	switch cfg.Backend {
	case BackendFile, "":
		return NewFileBackend(afero.NewOsFs(), cfg.File.DataDir, log)
	case BackendPostgres:
		db, err := database.NewPostgres(ctx, dbCfg, log)
		if err != nil {
			return nil, err
		}
		return NewPostgresBackend(ctx, db, log)
	case BackendBolt:
		return NewBoltBackend(cfg.Bolt.Path, cfg.Bolt.Timeout, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// docID reads the "id" member of a JSON object
func docID(doc []byte) (int64, error) {
	var head struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(doc, &head); err != nil {
		return 0, errors.Wrap(err, "decode document id")
	}
	return head.ID, nil
}
