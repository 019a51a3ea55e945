package storage

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"threatdash/internal/domain/models"
	"threatdash/pkg/logger"
)

// Repository is a typed view of one collection. T is a pointer to a model
// struct, e.g. *models.ThreatActor.
type Repository[T models.Entity] struct {
	backend    Backend
	collection string
	logger     *logger.Logger
}

// NewRepository binds a collection of backend to the record type T
func NewRepository[T models.Entity](backend Backend, collection string, log *logger.Logger) *Repository[T] {
	return &Repository[T]{
		backend:    backend,
		collection: collection,
		logger:     log.WithCollection(collection),
	}
}

// Collection returns the collection name
func (r *Repository[T]) Collection() string {
	return r.collection
}

func (r *Repository[T]) decode(doc []byte) (T, error) {
	var v T
	doc, err := models.NormalizeJSON(r.collection, doc)
	if err != nil {
		return v, errors.Wrapf(err, "normalize %s document", r.collection)
	}
	if err := json.Unmarshal(doc, &v); err != nil {
		return v, errors.Wrapf(err, "decode %s document", r.collection)
	}
	return v, nil
}

// List returns every record. A read failure is logged and yields an empty
// collection. Undecodable documents are skipped.
func (r *Repository[T]) List(ctx context.Context) []T {
	out, err := r.ListErr(ctx)
	if err != nil {
		r.logger.Error().Stack().Err(err).Msg("failed to load collection")
		return []T{}
	}
	return out
}

// ListErr is List for callers that must tell a failed read from an empty
// collection
func (r *Repository[T]) ListErr(ctx context.Context) ([]T, error) {
	docs, err := r.backend.List(ctx, r.collection)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := r.decode(doc)
		if err != nil {
			r.logger.Warn().Err(err).Msg("skipping unreadable document")
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// Get returns the record with id, or ErrNotFound
func (r *Repository[T]) Get(ctx context.Context, id int64) (T, error) {
	var zero T
	doc, err := r.backend.Get(ctx, r.collection, id)
	if err != nil {
		return zero, err
	}
	return r.decode(doc)
}

// Create stores v under a newly assigned id and sets it on v
func (r *Repository[T]) Create(ctx context.Context, v T) (T, error) {
	_, err := r.backend.Insert(ctx, r.collection, func(id int64) ([]byte, error) {
		v.SetID(id)
		data, err := json.Marshal(v)
		if err != nil {
			return nil, errors.Wrapf(err, "encode %s document", r.collection)
		}
		return data, nil
	})
	if err != nil {
		return v, err
	}
	return v, nil
}

// Update replaces the stored record with v; the id is taken from v
func (r *Repository[T]) Update(ctx context.Context, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s document", r.collection)
	}
	return r.backend.Replace(ctx, r.collection, v.GetID(), data)
}

// Delete removes the record with id, or returns ErrNotFound
func (r *Repository[T]) Delete(ctx context.Context, id int64) error {
	return r.backend.Delete(ctx, r.collection, id)
}

// Truncate removes every record of the collection
func (r *Repository[T]) Truncate(ctx context.Context) error {
	return r.backend.Truncate(ctx, r.collection)
}
