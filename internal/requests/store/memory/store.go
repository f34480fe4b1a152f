// Package memory provides the in-memory request repository used by tests,
// local development and the default server configuration.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"solicitudes/internal/requests/models"
	"solicitudes/pkg/platform/sentinel"
)

// InMemory stores requests in a map guarded by a RWMutex. Aggregates are
// cloned on the way in and out.
type InMemory struct {
	mu       sync.RWMutex
	requests map[models.RequestID]*models.Request
	lastID   models.RequestID
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[models.RequestID]*models.Request)}
}

func (s *InMemory) Save(ctx context.Context, r *models.Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !r.HasID() {
		s.lastID++
		r.AssignID(s.lastID)
		r.ApplyVersion(1)
		s.requests[r.ID()] = r.Clone()
		return nil
	}

	stored, ok := s.requests[r.ID()]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Version() != r.Version() {
		return sentinel.ErrConflict
	}
	r.ApplyVersion(r.Version() + 1)
	s.requests[r.ID()] = r.Clone()
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, id models.RequestID) (*models.Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.requests[id]; ok {
		return r.Clone(), nil
	}
	return nil, nil
}

func (s *InMemory) FindByIDOrFail(ctx context.Context, id models.RequestID) (*models.Request, error) {
	r, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &models.RequestNotFoundError{ID: id}
	}
	return r, nil
}

func (s *InMemory) FindAll(ctx context.Context) ([]*models.Request, error) {
	return s.filter(ctx, func(*models.Request) bool { return true })
}

func (s *InMemory) FindByStatus(ctx context.Context, status models.Status) ([]*models.Request, error) {
	return s.filter(ctx, func(r *models.Request) bool { return r.Status() == status })
}

func (s *InMemory) FindAllPaginated(ctx context.Context, criteria models.ListCriteria) (models.PaginatedResult[*models.Request], error) {
	criteria = criteria.WithDefaults()
	search := strings.ToLower(criteria.Search)

	matches, err := s.filter(ctx, func(r *models.Request) bool {
		if criteria.Status != nil && r.Status() != *criteria.Status {
			return false
		}
		if search != "" && !strings.Contains(strings.ToLower(r.DocumentName().String()), search) {
			return false
		}
		return true
	})
	if err != nil {
		return models.PaginatedResult[*models.Request]{}, err
	}

	sortRequests(matches, criteria.SortBy, criteria.SortOrder)

	total := len(matches)
	start := min(criteria.Offset(), total)
	end := min(start+criteria.PerPage, total)
	return models.NewPaginatedResult(matches[start:end], total, criteria.PerPage, criteria.Page), nil
}

func (s *InMemory) Delete(ctx context.Context, r *models.Request) error {
	if !r.HasID() {
		return nil
	}
	_, err := s.DeleteByID(ctx, r.ID())
	return err
}

func (s *InMemory) DeleteByID(ctx context.Context, id models.RequestID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[id]; !ok {
		return false, nil
	}
	delete(s.requests, id)
	return true, nil
}

func (s *InMemory) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.requests), nil
}

func (s *InMemory) CountByStatus(ctx context.Context, status models.Status) (int, error) {
	matches, err := s.FindByStatus(ctx, status)
	return len(matches), err
}

func (s *InMemory) Exists(ctx context.Context, id models.RequestID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.requests[id]
	return ok, nil
}

// NextIdentity previews the next sequence value. Concurrent inserts may
// consume it first.
func (s *InMemory) NextIdentity(ctx context.Context) (models.RequestID, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastID + 1, true, nil
}

// filter returns clones of matching requests, newest first.
func (s *InMemory) filter(ctx context.Context, keep func(*models.Request) bool) ([]*models.Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Request, 0, len(s.requests))
	for _, r := range s.requests {
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	sortRequests(out, models.SortByID, models.SortDesc)
	return out, nil
}

// sortRequests orders by field, breaking ties by id in the same direction.
func sortRequests(rs []*models.Request, by models.SortField, order models.SortOrder) {
	slices.SortFunc(rs, func(a, b *models.Request) int {
		var c int
		switch by {
		case models.SortByDocumentName:
			c = cmp.Compare(strings.ToLower(a.DocumentName().String()), strings.ToLower(b.DocumentName().String()))
		case models.SortByStatus:
			c = cmp.Compare(a.Status(), b.Status())
		case models.SortByCreatedAt:
			c = a.CreatedAt().Compare(b.CreatedAt())
		}
		if c == 0 {
			c = cmp.Compare(a.ID(), b.ID())
		}
		if order == models.SortDesc {
			return -c
		}
		return c
	})
}
