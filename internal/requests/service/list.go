package service

import (
	"context"

	"solicitudes/internal/requests/models"
	"solicitudes/internal/requests/ports"
)

// ListRequests reads request collections.
type ListRequests struct {
	deps
	defaultPerPage int
	maxPerPage     int
}

func NewListRequests(repo ports.Repository, opts ...Option) *ListRequests {
	return &ListRequests{
		deps:           newDeps(repo, opts...),
		defaultPerPage: models.DefaultPerPage,
		maxPerPage:     models.MaxPerPage,
	}
}

// WithPageSizes overrides the default and maximum page size.
func (uc *ListRequests) WithPageSizes(defaultPerPage, maxPerPage int) *ListRequests {
	if defaultPerPage > 0 {
		uc.defaultPerPage = defaultPerPage
	}
	if maxPerPage > 0 {
		uc.maxPerPage = maxPerPage
	}
	return uc
}

// Execute returns one page of summaries for the normalized query.
func (uc *ListRequests) Execute(ctx context.Context, q models.ListRequestsQuery) (page models.PaginatedResult[models.RequestSummary], err error) {
	ctx, finish := uc.start(ctx, "ListRequests")
	defer finish(&err)

	criteria, err := q.Criteria(uc.defaultPerPage, uc.maxPerPage)
	if err != nil {
		return models.PaginatedResult[models.RequestSummary]{}, err
	}
	result, err := uc.repo.FindAllPaginated(ctx, criteria)
	if err != nil {
		return models.PaginatedResult[models.RequestSummary]{}, translate(err, 0)
	}
	return models.MapPage(result, (*models.Request).Summary), nil
}

// All returns every request, newest first.
func (uc *ListRequests) All(ctx context.Context) (items []models.RequestSummary, err error) {
	ctx, finish := uc.start(ctx, "ListAllRequests")
	defer finish(&err)

	rs, err := uc.repo.FindAll(ctx)
	if err != nil {
		return nil, translate(err, 0)
	}
	return summaries(rs), nil
}

// ByStatus returns every request in status, newest first.
func (uc *ListRequests) ByStatus(ctx context.Context, status models.Status) (items []models.RequestSummary, err error) {
	ctx, finish := uc.start(ctx, "ListRequestsByStatus")
	defer finish(&err)

	if _, err = models.ParseStatus(string(status)); err != nil {
		return nil, err
	}
	rs, err := uc.repo.FindByStatus(ctx, status)
	if err != nil {
		return nil, translate(err, 0)
	}
	return summaries(rs), nil
}

// Stats counts requests overall and per status.
func (uc *ListRequests) Stats(ctx context.Context) (stats models.Stats, err error) {
	ctx, finish := uc.start(ctx, "RequestStats")
	defer finish(&err)

	total, err := uc.repo.Count(ctx)
	if err != nil {
		return models.Stats{}, translate(err, 0)
	}
	stats = models.Stats{Total: total, ByStatus: make(map[models.Status]int, len(models.AllStatuses()))}
	for _, s := range models.AllStatuses() {
		n, err := uc.repo.CountByStatus(ctx, s)
		if err != nil {
			return models.Stats{}, translate(err, 0)
		}
		stats.ByStatus[s] = n
	}
	return stats, nil
}

func summaries(rs []*models.Request) []models.RequestSummary {
	out := make([]models.RequestSummary, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Summary())
	}
	return out
}
