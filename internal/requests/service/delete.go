package service

import (
	"context"
	"errors"

	"solicitudes/internal/requests/models"
	"solicitudes/internal/requests/ports"
	"solicitudes/pkg/requestcontext"
)

// DeleteRequest removes a request.
type DeleteRequest struct {
	deps
}

func NewDeleteRequest(repo ports.Repository, opts ...Option) *DeleteRequest {
	return &DeleteRequest{deps: newDeps(repo, opts...)}
}

// Execute deletes the request and reports whether it was removed. Unknown ids
// return *models.RequestNotFoundError.
func (uc *DeleteRequest) Execute(ctx context.Context, rawID int64) (bool, error) {
	return uc.run(ctx, rawID, false)
}

// ForceExecute treats an unknown id as nothing to delete.
func (uc *DeleteRequest) ForceExecute(ctx context.Context, rawID int64) (bool, error) {
	return uc.run(ctx, rawID, true)
}

func (uc *DeleteRequest) run(ctx context.Context, rawID int64, forced bool) (deleted bool, err error) {
	useCase := "DeleteRequest"
	if forced {
		useCase = "ForceDeleteRequest"
	}
	ctx, finish := uc.start(ctx, useCase)
	defer finish(&err)

	id, err := models.NewRequestID(rawID)
	if err != nil {
		return false, err
	}

	var r *models.Request
	err = uc.tx.RunInTx(ctx, func(ctx context.Context) error {
		loaded, err := uc.repo.FindByIDOrFail(ctx, id)
		if err != nil {
			return err
		}
		if !loaded.CanBeDeleted() {
			return nil
		}
		if err := uc.repo.Delete(ctx, loaded); err != nil {
			return err
		}
		r = loaded
		return nil
	})
	if err != nil {
		if forced && errors.Is(err, models.ErrRequestNotFound) {
			return false, nil
		}
		err = translate(err, id)
		if isInfrastructure(err) {
			uc.audit.LogError(ctx, "delete", "failed to delete request", map[string]any{
				"solicitud_id": id.Int64(),
				"forced":       forced,
				"error":        err.Error(),
			})
		}
		return false, err
	}
	if r == nil {
		return false, nil
	}

	uc.audit.LogDeleted(ctx, r.ID(), r.DocumentName().String())
	if uc.metrics != nil {
		uc.metrics.IncrementDeleted(forced)
	}
	if err = uc.dispatch(ctx, models.NewRequestDeleted(r, requestcontext.Now(ctx))); err != nil {
		return false, err
	}
	return true, nil
}
