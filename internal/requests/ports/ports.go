// Package ports defines the interfaces the request use cases depend on.
// Adapters live under internal/requests/{store,audit,events}.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"solicitudes/internal/requests/models"
)

// Repository persists Request aggregates.
//
// Collection reads are ordered newest first (id descending) unless the
// criteria ask for another order. Stores return sentinel.ErrNotFound and
// sentinel.ErrConflict for infrastructure facts; FindByIDOrFail is the only
// method that returns a domain error.
type Repository interface {
	// Save inserts an aggregate without id (assigning id and version) or
	// updates an existing one when its version matches the stored row.
	Save(ctx context.Context, r *models.Request) error

	// FindByID returns (nil, nil) when no request has the id.
	FindByID(ctx context.Context, id models.RequestID) (*models.Request, error)

	// FindByIDOrFail returns *models.RequestNotFoundError when absent.
	FindByIDOrFail(ctx context.Context, id models.RequestID) (*models.Request, error)

	FindAll(ctx context.Context) ([]*models.Request, error)
	FindAllPaginated(ctx context.Context, criteria models.ListCriteria) (models.PaginatedResult[*models.Request], error)
	FindByStatus(ctx context.Context, status models.Status) ([]*models.Request, error)

	// Delete removes the aggregate's row. Aggregates without id are ignored.
	Delete(ctx context.Context, r *models.Request) error
	DeleteByID(ctx context.Context, id models.RequestID) (bool, error)

	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status models.Status) (int, error)
	Exists(ctx context.Context, id models.RequestID) (bool, error)

	// NextIdentity previews the id the next insert will receive. ok is false
	// when the backing store cannot tell (database sequences).
	NextIdentity(ctx context.Context) (id models.RequestID, ok bool, err error)
}

// AuditLogger records request lifecycle facts on a side channel.
// Implementations must not fail the calling use case.
type AuditLogger interface {
	LogCreated(ctx context.Context, id models.RequestID, documentName string)
	LogStatusChanged(ctx context.Context, id models.RequestID, from, to models.Status, forced bool)
	LogDeleted(ctx context.Context, id models.RequestID, documentName string)
	LogError(ctx context.Context, operation, message string, fields map[string]any)
}

// EventDispatcher delivers domain events after persistence succeeded.
// Dispatch returns once every listener registered for the event name at call
// time has run (or the event was handed to the broker).
type EventDispatcher interface {
	Dispatch(ctx context.Context, event models.Event) error
	DispatchAll(ctx context.Context, events []models.Event) error
}

// Transactor runs fn inside a unit of work. Repositories pick up the
// transaction from the context passed to fn.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
