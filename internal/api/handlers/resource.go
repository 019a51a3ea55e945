package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"threatdash/internal/domain/apperr"
	"threatdash/internal/domain/filter"
	"threatdash/pkg/logger"
)

// ResourceService is the CRUD surface a record service exposes.
// I is the create payload and P the partial update.
type ResourceService[T any, I any, P any] interface {
	Label() string
	List(ctx context.Context, params filter.Params) filter.Page[T]
	Get(ctx context.Context, id int64, expand []string) (T, error)
	Create(ctx context.Context, in I) (T, error)
	Update(ctx context.Context, id int64, patch P) (T, error)
	Delete(ctx context.Context, id int64) error
	NotFound(id any) *apperr.Error
}

// ResourceHandler serves list, get, create, update and delete for one
// record collection
type ResourceHandler[T any, I any, P any] struct {
	svc        ResourceService[T, I, P]
	collection string
	maxBody    int64
	logger     *logger.Logger
}

// NewResourceHandler creates a handler for svc. collection selects the
// legacy field names accepted in request bodies.
func NewResourceHandler[T any, I any, P any](svc ResourceService[T, I, P], collection string, maxBody int64, log *logger.Logger) *ResourceHandler[T, I, P] {
	return &ResourceHandler[T, I, P]{
		svc:        svc,
		collection: collection,
		maxBody:    maxBody,
		logger:     log.WithComponent(collection + "-handler"),
	}
}

// Routes mounts the handler under a chi router
func (h *ResourceHandler[T, I, P]) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// List returns a filtered, paginated page of records
func (h *ResourceHandler[T, I, P]) List(w http.ResponseWriter, r *http.Request) {
	page := h.svc.List(r.Context(), filter.ParseParams(r.URL.Query()))
	respondJSON(w, h.logger, http.StatusOK, page)
}

// Get returns a single record
func (h *ResourceHandler[T, I, P]) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	v, err := h.svc.Get(r.Context(), id, expandParam(r))
	if err != nil {
		respondError(w, h.logger, err, "Failed to retrieve "+h.lower())
		return
	}
	respondJSON(w, h.logger, http.StatusOK, v)
}

// Create validates the body and stores a new record
func (h *ResourceHandler[T, I, P]) Create(w http.ResponseWriter, r *http.Request) {
	var in I
	if err := decodeBody(w, r, h.maxBody, h.collection, &in); err != nil {
		respondError(w, h.logger, err, "Failed to create "+h.lower())
		return
	}

	v, err := h.svc.Create(r.Context(), in)
	if err != nil {
		respondError(w, h.logger, err, "Failed to create "+h.lower())
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, MessageResponse{
		Message: h.svc.Label() + " created successfully",
		Data:    v,
	})
}

// Update applies a partial update. The id in the path is authoritative.
func (h *ResourceHandler[T, I, P]) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var patch P
	if err := decodeBody(w, r, h.maxBody, h.collection, &patch); err != nil {
		respondError(w, h.logger, err, "Failed to update "+h.lower())
		return
	}

	v, err := h.svc.Update(r.Context(), id, patch)
	if err != nil {
		respondError(w, h.logger, err, "Failed to update "+h.lower())
		return
	}
	respondJSON(w, h.logger, http.StatusOK, MessageResponse{
		Message: h.svc.Label() + " updated successfully",
		Data:    v,
	})
}

// Delete removes a record
func (h *ResourceHandler[T, I, P]) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, err, "Failed to delete "+h.lower())
		return
	}
	respondJSON(w, h.logger, http.StatusOK, MessageResponse{
		Message: h.svc.Label() + " deleted successfully",
	})
}

// pathID parses {id}. Ids that are not integers cannot exist, so they get
// the same 404 as a missing record.
func (h *ResourceHandler[T, I, P]) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondError(w, h.logger, h.svc.NotFound(raw), "")
		return 0, false
	}
	return id, true
}

func (h *ResourceHandler[T, I, P]) lower() string {
	return strings.ToLower(h.svc.Label())
}

// expandParam splits ?expand=a,b
func expandParam(r *http.Request) []string {
	raw := r.URL.Query().Get("expand")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
