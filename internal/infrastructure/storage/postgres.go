package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"threatdash/internal/infrastructure/database"
	"threatdash/pkg/logger"
)

const createDocumentsTable = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT   NOT NULL,
	id         BIGINT NOT NULL,
	doc        JSONB  NOT NULL,
	PRIMARY KEY (collection, id)
)`

// PostgresBackend stores every collection in one JSONB table
type PostgresBackend struct {
	db     *database.PostgresDB
	q      database.DBTX
	logger *logger.Logger
}

// NewPostgresBackend ensures the documents table exists
func NewPostgresBackend(ctx context.Context, db *database.PostgresDB, log *logger.Logger) (*PostgresBackend, error) {
	if _, err := db.Pool().Exec(ctx, createDocumentsTable); err != nil {
		return nil, errors.Wrap(err, "create documents table")
	}
	return &PostgresBackend{db: db, q: db.Pool(), logger: log.WithComponent("storage.postgres")}, nil
}

func (b *PostgresBackend) Name() string { return BackendPostgres }

func (b *PostgresBackend) List(ctx context.Context, collection string) ([][]byte, error) {
	rows, err := b.q.Query(ctx,
		`SELECT doc FROM documents WHERE collection = $1 ORDER BY id`, collection)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", collection)
	}

	docs, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", collection)
	}
	if docs == nil {
		docs = [][]byte{}
	}
	return docs, nil
}

func (b *PostgresBackend) Get(ctx context.Context, collection string, id int64) ([]byte, error) {
	var doc []byte
	err := b.q.QueryRow(ctx,
		`SELECT doc FROM documents WHERE collection = $1 AND id = $2`, collection, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %s/%d", collection, id)
	}
	return doc, nil
}

// Insert allocates max(id)+1 under a transaction-scoped advisory lock keyed
// by collection, so concurrent inserts never collide
func (b *PostgresBackend) Insert(ctx context.Context, collection string, build BuildFunc) (int64, error) {
	var id int64
	err := b.db.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		if id, err = nextID(ctx, tx, collection); err != nil {
			return err
		}

		doc, err := build(id)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO documents (collection, id, doc) VALUES ($1, $2, $3)`, collection, id, doc); err != nil {
			return errors.Wrapf(err, "insert %s/%d", collection, id)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// nextID locks collection for the rest of q's transaction and returns the
// id after the current maximum
func nextID(ctx context.Context, q database.DBTX, collection string) (int64, error) {
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, collection); err != nil {
		return 0, errors.Wrap(err, "lock collection")
	}
	var id int64
	if err := q.QueryRow(ctx,
		`SELECT COALESCE(MAX(id), 0) + 1 FROM documents WHERE collection = $1`, collection).Scan(&id); err != nil {
		return 0, errors.Wrap(err, "next id")
	}
	return id, nil
}

func (b *PostgresBackend) Replace(ctx context.Context, collection string, id int64, doc []byte) error {
	tag, err := b.q.Exec(ctx,
		`UPDATE documents SET doc = $3 WHERE collection = $1 AND id = $2`, collection, id, doc)
	if err != nil {
		return errors.Wrapf(err, "replace %s/%d", collection, id)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (b *PostgresBackend) Delete(ctx context.Context, collection string, id int64) error {
	tag, err := b.q.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return errors.Wrapf(err, "delete %s/%d", collection, id)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (b *PostgresBackend) Truncate(ctx context.Context, collection string) error {
	if _, err := b.q.Exec(ctx, `DELETE FROM documents WHERE collection = $1`, collection); err != nil {
		return errors.Wrapf(err, "truncate %s", collection)
	}
	return nil
}

func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.db.Ping(ctx)
}

func (b *PostgresBackend) Close() error {
	b.db.Close()
	return nil
}
