// Package gormstore implements the request repository on PostgreSQL through
// GORM. It shares the goose-managed schema with sqlstore.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"solicitudes/internal/requests/models"
	"solicitudes/pkg/platform/sentinel"
)

var sortColumns = map[models.SortField]string{
	models.SortByID:           "id",
	models.SortByDocumentName: "document_name",
	models.SortByStatus:       "status",
	models.SortByCreatedAt:    "created_at",
}

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// conn returns the transaction bound to ctx, or the pool.
func (s *Store) conn(ctx context.Context) *gorm.DB {
	if tx, ok := txFrom(ctx); ok {
		return tx.WithContext(ctx)
	}
	return s.db.WithContext(ctx)
}

func (s *Store) Save(ctx context.Context, r *models.Request) error {
	if !r.HasID() {
		rec := toRecord(r)
		rec.Version = 1
		if err := s.conn(ctx).Create(&rec).Error; err != nil {
			return fmt.Errorf("insert request: %w", err)
		}
		r.AssignID(models.RequestID(rec.ID))
		r.ApplyVersion(1)
		return nil
	}

	res := s.conn(ctx).Model(&requestRecord{}).
		Where("id = ? AND version = ?", r.ID().Int64(), r.Version()).
		Updates(map[string]any{
			"document_name": r.DocumentName().String(),
			"status":        string(r.Status()),
			"updated_at":    r.UpdatedAt().UTC(),
			"version":       gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("update request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		exists, err := s.Exists(ctx, r.ID())
		if err != nil {
			return err
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	r.ApplyVersion(r.Version() + 1)
	return nil
}

func (s *Store) FindByID(ctx context.Context, id models.RequestID) (*models.Request, error) {
	var rec requestRecord
	if err := s.conn(ctx).Where("id = ?", id.Int64()).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find request by id: %w", err)
	}
	return toDomain(rec)
}

func (s *Store) FindByIDOrFail(ctx context.Context, id models.RequestID) (*models.Request, error) {
	r, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &models.RequestNotFoundError{ID: id}
	}
	return r, nil
}

func (s *Store) FindAll(ctx context.Context) ([]*models.Request, error) {
	var recs []requestRecord
	if err := s.conn(ctx).Order("id DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return toDomainList(recs)
}

func (s *Store) FindByStatus(ctx context.Context, status models.Status) ([]*models.Request, error) {
	var recs []requestRecord
	if err := s.conn(ctx).Where("status = ?", string(status)).Order("id DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list requests by status: %w", err)
	}
	return toDomainList(recs)
}

func (s *Store) FindAllPaginated(ctx context.Context, criteria models.ListCriteria) (models.PaginatedResult[*models.Request], error) {
	criteria = criteria.WithDefaults()
	filtered := func() *gorm.DB {
		q := s.conn(ctx).Model(&requestRecord{})
		if criteria.Status != nil {
			q = q.Where("status = ?", string(*criteria.Status))
		}
		if criteria.Search != "" {
			q = q.Where(`LOWER(document_name) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(criteria.Search))+"%")
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return models.PaginatedResult[*models.Request]{}, fmt.Errorf("count requests: %w", err)
	}

	dir := "DESC"
	if criteria.SortOrder == models.SortAsc {
		dir = "ASC"
	}
	var recs []requestRecord
	err := filtered().
		Order(fmt.Sprintf("%s %s, id %s", sortColumns[criteria.SortBy], dir, dir)).
		Limit(criteria.PerPage).
		Offset(criteria.Offset()).
		Find(&recs).Error
	if err != nil {
		return models.PaginatedResult[*models.Request]{}, fmt.Errorf("list requests: %w", err)
	}
	items, err := toDomainList(recs)
	if err != nil {
		return models.PaginatedResult[*models.Request]{}, err
	}
	return models.NewPaginatedResult(items, int(total), criteria.PerPage, criteria.Page), nil
}

func (s *Store) Delete(ctx context.Context, r *models.Request) error {
	if !r.HasID() {
		return nil
	}
	_, err := s.DeleteByID(ctx, r.ID())
	return err
}

func (s *Store) DeleteByID(ctx context.Context, id models.RequestID) (bool, error) {
	res := s.conn(ctx).Where("id = ?", id.Int64()).Delete(&requestRecord{})
	if res.Error != nil {
		return false, fmt.Errorf("delete request: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.conn(ctx).Model(&requestRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}
	return int(n), nil
}

func (s *Store) CountByStatus(ctx context.Context, status models.Status) (int, error) {
	var n int64
	if err := s.conn(ctx).Model(&requestRecord{}).Where("status = ?", string(status)).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count requests by status: %w", err)
	}
	return int(n), nil
}

func (s *Store) Exists(ctx context.Context, id models.RequestID) (bool, error) {
	var n int64
	if err := s.conn(ctx).Model(&requestRecord{}).Where("id = ?", id.Int64()).Count(&n).Error; err != nil {
		return false, fmt.Errorf("request exists: %w", err)
	}
	return n > 0, nil
}

func (s *Store) NextIdentity(context.Context) (models.RequestID, bool, error) {
	return 0, false, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
