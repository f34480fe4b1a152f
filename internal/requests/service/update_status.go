package service

import (
	"context"
	"errors"

	"solicitudes/internal/requests/models"
	"solicitudes/internal/requests/ports"
	"solicitudes/pkg/requestcontext"
)

// UpdateRequestStatus moves a request through its status machine.
type UpdateRequestStatus struct {
	deps
}

func NewUpdateRequestStatus(repo ports.Repository, opts ...Option) *UpdateRequestStatus {
	return &UpdateRequestStatus{deps: newDeps(repo, opts...)}
}

// Execute applies the transition when the status table allows it and returns
// *models.InvalidStateTransitionError otherwise.
func (uc *UpdateRequestStatus) Execute(ctx context.Context, rawID int64, target models.Status) (models.RequestSummary, error) {
	return uc.run(ctx, rawID, target, false)
}

// ForceExecute sets the status without consulting the transition table.
// Callers are responsible for authorizing it.
func (uc *UpdateRequestStatus) ForceExecute(ctx context.Context, rawID int64, target models.Status) (models.RequestSummary, error) {
	return uc.run(ctx, rawID, target, true)
}

func (uc *UpdateRequestStatus) run(ctx context.Context, rawID int64, target models.Status, forced bool) (summary models.RequestSummary, err error) {
	useCase := "UpdateRequestStatus"
	if forced {
		useCase = "ForceUpdateRequestStatus"
	}
	ctx, finish := uc.start(ctx, useCase)
	defer finish(&err)

	id, err := models.NewRequestID(rawID)
	if err != nil {
		return models.RequestSummary{}, err
	}
	if target, err = models.ParseStatus(string(target)); err != nil {
		return models.RequestSummary{}, err
	}

	now := requestcontext.Now(ctx)
	var (
		r        *models.Request
		previous models.Status
	)
	err = uc.tx.RunInTx(ctx, func(ctx context.Context) error {
		loaded, err := uc.repo.FindByIDOrFail(ctx, id)
		if err != nil {
			return err
		}
		previous = loaded.Status()
		if forced {
			loaded.ForceStatus(target, now)
		} else if err := loaded.ChangeStatus(target, now); err != nil {
			return err
		}
		if err := uc.repo.Save(ctx, loaded); err != nil {
			return err
		}
		r = loaded
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrInvalidStateTransition) {
			if uc.metrics != nil {
				uc.metrics.IncrementRejectedTransition()
			}
			return models.RequestSummary{}, err
		}
		err = translate(err, id)
		if isInfrastructure(err) {
			uc.audit.LogError(ctx, "update_status", "failed to update request status", map[string]any{
				"solicitud_id": id.Int64(),
				"target":       string(target),
				"forced":       forced,
				"error":        err.Error(),
			})
		}
		return models.RequestSummary{}, err
	}

	uc.audit.LogStatusChanged(ctx, r.ID(), previous, r.Status(), forced)
	if uc.metrics != nil {
		uc.metrics.IncrementTransition(previous, r.Status(), forced)
	}
	if err = uc.dispatch(ctx, models.NewRequestStatusChanged(r, previous, forced, now)); err != nil {
		return models.RequestSummary{}, err
	}
	return r.Summary(), nil
}
