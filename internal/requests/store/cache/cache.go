// Package cache provides a Redis read-through decorator for the request
// repository. Redis is optional: when it misbehaves a circuit breaker routes
// reads straight to the wrapped store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"solicitudes/internal/requests/models"
	"solicitudes/internal/requests/ports"
	"solicitudes/pkg/platform/circuit"
	"solicitudes/pkg/platform/tx"
)

const (
	keyPrefix  = "solicitudes:request:"
	defaultTTL = 5 * time.Minute
)

// Client is the subset of go-redis the cache uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Repository caches single-request lookups. Collection reads, counts and
// writes go to the wrapped repository; writes evict the affected key.
type Repository struct {
	ports.Repository
	client  Client
	ttl     time.Duration
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type Option func(*Repository)

func WithTTL(ttl time.Duration) Option {
	return func(r *Repository) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(r *Repository) {
		if b != nil {
			r.breaker = b
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func New(inner ports.Repository, client Client, opts ...Option) *Repository {
	r := &Repository{
		Repository: inner,
		client:     client,
		ttl:        defaultTTL,
		breaker:    circuit.New("redis-cache"),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func key(id models.RequestID) string {
	return keyPrefix + id.String()
}

type entry struct {
	ID           int64     `json:"id"`
	DocumentName string    `json:"document_name"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      int       `json:"version"`
}

func toEntry(r *models.Request) entry {
	return entry{
		ID:           r.ID().Int64(),
		DocumentName: r.DocumentName().String(),
		Status:       string(r.Status()),
		CreatedAt:    r.CreatedAt(),
		UpdatedAt:    r.UpdatedAt(),
		Version:      r.Version(),
	}
}

func (e entry) toDomain() (*models.Request, error) {
	id, err := models.NewRequestID(e.ID)
	if err != nil {
		return nil, err
	}
	name, err := models.NewDocumentName(e.DocumentName)
	if err != nil {
		return nil, err
	}
	status, err := models.ParseStatus(e.Status)
	if err != nil {
		return nil, err
	}
	return models.Reconstitute(id, name, status, e.CreatedAt.UTC(), e.UpdatedAt.UTC(), e.Version), nil
}

func (r *Repository) FindByID(ctx context.Context, id models.RequestID) (*models.Request, error) {
	if cached, ok := r.lookup(ctx, id); ok {
		return cached, nil
	}
	found, err := r.Repository.FindByID(ctx, id)
	if err != nil || found == nil {
		return found, err
	}
	r.store(ctx, found)
	return found, nil
}

func (r *Repository) FindByIDOrFail(ctx context.Context, id models.RequestID) (*models.Request, error) {
	found, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, &models.RequestNotFoundError{ID: id}
	}
	return found, nil
}

func (r *Repository) Save(ctx context.Context, req *models.Request) error {
	if err := r.Repository.Save(ctx, req); err != nil {
		return err
	}
	r.evictOnCommit(ctx, req.ID())
	return nil
}

func (r *Repository) Delete(ctx context.Context, req *models.Request) error {
	if err := r.Repository.Delete(ctx, req); err != nil {
		return err
	}
	if req.HasID() {
		r.evictOnCommit(ctx, req.ID())
	}
	return nil
}

func (r *Repository) DeleteByID(ctx context.Context, id models.RequestID) (bool, error) {
	deleted, err := r.Repository.DeleteByID(ctx, id)
	if err != nil {
		return false, err
	}
	r.evictOnCommit(ctx, id)
	return deleted, nil
}

func (r *Repository) lookup(ctx context.Context, id models.RequestID) (*models.Request, bool) {
	if !r.breaker.Allow() {
		return nil, false
	}
	raw, err := r.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.recordSuccess(ctx)
		return nil, false
	}
	if err != nil {
		r.recordFailure(ctx, "get", err)
		return nil, false
	}
	r.recordSuccess(ctx)

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		r.logger.WarnContext(ctx, "discarding corrupt cache entry", "key", key(id), "error", err)
		r.evict(ctx, id)
		return nil, false
	}
	req, err := e.toDomain()
	if err != nil {
		r.logger.WarnContext(ctx, "discarding invalid cache entry", "key", key(id), "error", err)
		r.evict(ctx, id)
		return nil, false
	}
	return req, true
}

func (r *Repository) store(ctx context.Context, req *models.Request) {
	if !r.breaker.Allow() {
		return
	}
	payload, err := json.Marshal(toEntry(req))
	if err != nil {
		r.logger.WarnContext(ctx, "encode cache entry", "error", err)
		return
	}
	if err := r.client.Set(ctx, key(req.ID()), payload, r.ttl).Err(); err != nil {
		r.recordFailure(ctx, "set", err)
		return
	}
	r.recordSuccess(ctx)
}

// evictOnCommit evicts once the surrounding unit of work commits, so a reader
// racing the transaction cannot re-cache the row it is replacing. Without a
// unit of work the write is already durable and the key goes immediately.
func (r *Repository) evictOnCommit(ctx context.Context, id models.RequestID) {
	if tx.AfterCommit(ctx, func(ctx context.Context) { r.evict(ctx, id) }) {
		return
	}
	r.evict(ctx, id)
}

// evict ignores the breaker: a recovering Redis must not serve an entry
// older than the last write.
func (r *Repository) evict(ctx context.Context, id models.RequestID) {
	if err := r.client.Del(ctx, key(id)).Err(); err != nil {
		r.recordFailure(ctx, "del", err)
		return
	}
	r.recordSuccess(ctx)
}

func (r *Repository) recordFailure(ctx context.Context, op string, err error) {
	_, change := r.breaker.RecordFailure()
	r.logger.WarnContext(ctx, "redis cache operation failed",
		"operation", op,
		"error", err,
	)
	if change.Opened {
		r.logger.ErrorContext(ctx, "redis cache circuit opened; reading from primary store",
			"breaker", r.breaker.Name(),
		)
	}
}

func (r *Repository) recordSuccess(ctx context.Context) {
	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.logger.InfoContext(ctx, "redis cache circuit closed", "breaker", r.breaker.Name())
	}
}
