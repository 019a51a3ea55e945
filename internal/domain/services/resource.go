package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"threatdash/internal/domain/apperr"
	"threatdash/internal/domain/filter"
	"threatdash/internal/domain/models"
	"threatdash/internal/infrastructure/storage"
	"threatdash/pkg/logger"
)

// Store is the typed persistence a resource service needs.
// *storage.Repository satisfies it.
type Store[T models.Entity] interface {
	List(ctx context.Context) []T
	Get(ctx context.Context, id int64) (T, error)
	Create(ctx context.Context, v T) (T, error)
	Update(ctx context.Context, v T) error
	Delete(ctx context.Context, id int64) error
}

// ChangeFunc is invoked after every successful write
type ChangeFunc func(ctx context.Context)

// Options are shared by all resource services
type Options struct {
	DefaultLimit int
	OnChange     ChangeFunc
	Now          func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now().UTC()
}

// resource implements list/get/delete and the write plumbing common to all
// record types
type resource[T models.Entity] struct {
	store    Store[T]
	pipeline *filter.Pipeline[T]
	label    string // e.g. "Threat actor"
	opts     Options
	logger   *logger.Logger
}

func newResource[T models.Entity](store Store[T], label string, cfg filter.Config[T], opts Options, log *logger.Logger) resource[T] {
	cfg.DefaultLimit = opts.DefaultLimit
	return resource[T]{
		store:    store,
		pipeline: filter.New(cfg),
		label:    label,
		opts:     opts,
		logger:   log,
	}
}

// Label is the human-readable singular name used in messages
func (r *resource[T]) Label() string {
	return r.label
}

func (r *resource[T]) lower() string {
	return strings.ToLower(r.label)
}

// List applies the filter pipeline to the whole collection
func (r *resource[T]) List(ctx context.Context, params filter.Params) filter.Page[T] {
	return r.pipeline.Apply(r.store.List(ctx), params)
}

func (r *resource[T]) get(ctx context.Context, id int64) (T, error) {
	v, err := r.store.Get(ctx, id)
	if err != nil {
		return v, r.storeErr(err, id, "retrieve")
	}
	return v, nil
}

func (r *resource[T]) create(ctx context.Context, v T) (T, error) {
	v, err := r.store.Create(ctx, v)
	if err != nil {
		return v, r.storeErr(err, 0, "create")
	}
	r.logger.Info().Int64("id", v.GetID()).Msg("record created")
	r.changed(ctx)
	return v, nil
}

func (r *resource[T]) save(ctx context.Context, v T) error {
	if err := r.store.Update(ctx, v); err != nil {
		return r.storeErr(err, v.GetID(), "update")
	}
	r.logger.Info().Int64("id", v.GetID()).Msg("record updated")
	r.changed(ctx)
	return nil
}

// Delete removes a record; unknown ids are not found
func (r *resource[T]) Delete(ctx context.Context, id int64) error {
	if err := r.store.Delete(ctx, id); err != nil {
		return r.storeErr(err, id, "delete")
	}
	r.logger.Info().Int64("id", id).Msg("record deleted")
	r.changed(ctx)
	return nil
}

func (r *resource[T]) changed(ctx context.Context) {
	if r.opts.OnChange != nil {
		r.opts.OnChange(ctx)
	}
}

// NotFound builds the error for an unknown id. id is formatted verbatim so
// unparseable path ids can be reported too.
func (r *resource[T]) NotFound(id any) *apperr.Error {
	return apperr.NotFound("%s with ID %v not found", r.label, id)
}

// storeErr classifies a storage error for operation op
func (r *resource[T]) storeErr(err error, id int64, op string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return r.NotFound(id)
	}
	r.logger.Error().Stack().Err(err).Int64("id", id).Str("op", op).Msg("storage failure")
	return apperr.Storage(err, fmt.Sprintf("Failed to %s %s", op, r.lower()))
}
