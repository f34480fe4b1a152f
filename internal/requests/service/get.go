package service

import (
	"context"

	"solicitudes/internal/requests/models"
	"solicitudes/internal/requests/ports"
)

// GetRequest loads a single request.
type GetRequest struct {
	deps
}

func NewGetRequest(repo ports.Repository, opts ...Option) *GetRequest {
	return &GetRequest{deps: newDeps(repo, opts...)}
}

// Execute returns *models.RequestNotFoundError when the id is unknown.
func (uc *GetRequest) Execute(ctx context.Context, rawID int64) (summary models.RequestSummary, err error) {
	ctx, finish := uc.start(ctx, "GetRequest")
	defer finish(&err)

	id, err := models.NewRequestID(rawID)
	if err != nil {
		return models.RequestSummary{}, err
	}
	r, err := uc.repo.FindByIDOrFail(ctx, id)
	if err != nil {
		return models.RequestSummary{}, translate(err, id)
	}
	return r.Summary(), nil
}

// Find returns nil without error when the id is unknown.
func (uc *GetRequest) Find(ctx context.Context, rawID int64) (summary *models.RequestSummary, err error) {
	ctx, finish := uc.start(ctx, "FindRequest")
	defer finish(&err)

	id, err := models.NewRequestID(rawID)
	if err != nil {
		return nil, err
	}
	r, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, id)
	}
	if r == nil {
		return nil, nil
	}
	s := r.Summary()
	return &s, nil
}
