package service

import (
	"context"

	"solicitudes/internal/requests/models"
	"solicitudes/internal/requests/ports"
	"solicitudes/pkg/requestcontext"
)

// CreateRequest registers a new document request.
type CreateRequest struct {
	deps
}

func NewCreateRequest(repo ports.Repository, opts ...Option) *CreateRequest {
	return &CreateRequest{deps: newDeps(repo, opts...)}
}

// Execute creates a pending request named rawName.
func (uc *CreateRequest) Execute(ctx context.Context, rawName string) (models.RequestSummary, error) {
	return uc.create(ctx, rawName, models.StatusPending, "CreateRequest")
}

// ExecuteWithStatus creates a request directly in status. Used by seeding.
func (uc *CreateRequest) ExecuteWithStatus(ctx context.Context, rawName string, status models.Status) (models.RequestSummary, error) {
	return uc.create(ctx, rawName, status, "CreateRequestWithStatus")
}

func (uc *CreateRequest) create(ctx context.Context, rawName string, status models.Status, useCase string) (summary models.RequestSummary, err error) {
	ctx, finish := uc.start(ctx, useCase)
	defer finish(&err)

	name, err := models.NewDocumentName(rawName)
	if err != nil {
		return models.RequestSummary{}, err
	}
	now := requestcontext.Now(ctx)
	r, err := models.NewRequestWithStatus(name, status, now)
	if err != nil {
		return models.RequestSummary{}, err
	}

	if err = uc.tx.RunInTx(ctx, func(ctx context.Context) error {
		return uc.repo.Save(ctx, r)
	}); err != nil {
		uc.audit.LogError(ctx, "create", "failed to save request", map[string]any{
			"document_name": name.String(),
			"error":         err.Error(),
		})
		return models.RequestSummary{}, translate(err, 0)
	}

	uc.audit.LogCreated(ctx, r.ID(), name.String())
	if uc.metrics != nil {
		uc.metrics.IncrementCreated()
	}
	if err = uc.dispatch(ctx, models.NewRequestCreated(r, now)); err != nil {
		return models.RequestSummary{}, err
	}
	return r.Summary(), nil
}
