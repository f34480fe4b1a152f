// Package sqlstore implements the request repository over database/sql via
// sqlx. Queries are written with ? placeholders and rebound for the driver,
// so the same store serves PostgreSQL (pgx, lib/pq) and SQLite (modernc).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"solicitudes/internal/requests/models"
	"solicitudes/pkg/platform/sentinel"
	"solicitudes/pkg/platform/tx"
)

const selectColumns = `SELECT id, document_name, status, created_at, updated_at, version FROM requests`

// sortColumns whitelists ORDER BY targets.
var sortColumns = map[models.SortField]string{
	models.SortByID:           "id",
	models.SortByDocumentName: "document_name",
	models.SortByStatus:       "status",
	models.SortByCreatedAt:    "created_at",
}

// Store persists requests in the "requests" table.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) execer(ctx context.Context) tx.Execer {
	return tx.Pick(ctx, s.db)
}

func (s *Store) Save(ctx context.Context, r *models.Request) error {
	if !r.HasID() {
		return s.insert(ctx, r)
	}
	return s.update(ctx, r)
}

func (s *Store) insert(ctx context.Context, r *models.Request) error {
	ex := s.execer(ctx)
	query := ex.Rebind(`INSERT INTO requests (document_name, status, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, 1) RETURNING id`)

	var id int64
	err := ex.QueryRowxContext(ctx, query,
		r.DocumentName().String(),
		string(r.Status()),
		r.CreatedAt().UTC(),
		r.UpdatedAt().UTC(),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	r.AssignID(models.RequestID(id))
	r.ApplyVersion(1)
	return nil
}

func (s *Store) update(ctx context.Context, r *models.Request) error {
	ex := s.execer(ctx)
	query := ex.Rebind(`UPDATE requests
		SET document_name = ?, status = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`)

	res, err := ex.ExecContext(ctx, query,
		r.DocumentName().String(),
		string(r.Status()),
		r.UpdatedAt().UTC(),
		r.ID().Int64(),
		r.Version(),
	)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update request rows affected: %w", err)
	}
	if n == 0 {
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
	ex := s.execer(ctx)
	var row requestRow
	err := ex.GetContext(ctx, &row, ex.Rebind(selectColumns+` WHERE id = ?`), id.Int64())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find request by id: %w", err)
	}
	return row.toDomain()
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
	return s.list(ctx, selectColumns+` ORDER BY id DESC`)
}

func (s *Store) FindByStatus(ctx context.Context, status models.Status) ([]*models.Request, error) {
	return s.list(ctx, selectColumns+` WHERE status = ? ORDER BY id DESC`, string(status))
}

func (s *Store) FindAllPaginated(ctx context.Context, criteria models.ListCriteria) (models.PaginatedResult[*models.Request], error) {
	criteria = criteria.WithDefaults()
	where, args := whereClause(criteria)

	ex := s.execer(ctx)
	var total int
	if err := ex.GetContext(ctx, &total, ex.Rebind(`SELECT COUNT(*) FROM requests`+where), args...); err != nil {
		return models.PaginatedResult[*models.Request]{}, fmt.Errorf("count requests: %w", err)
	}

	dir := "DESC"
	if criteria.SortOrder == models.SortAsc {
		dir = "ASC"
	}
	query := fmt.Sprintf("%s%s ORDER BY %s %s, id %s LIMIT ? OFFSET ?",
		selectColumns, where, sortColumns[criteria.SortBy], dir, dir)
	items, err := s.list(ctx, query, append(args, criteria.PerPage, criteria.Offset())...)
	if err != nil {
		return models.PaginatedResult[*models.Request]{}, err
	}
	return models.NewPaginatedResult(items, total, criteria.PerPage, criteria.Page), nil
}

func (s *Store) Delete(ctx context.Context, r *models.Request) error {
	if !r.HasID() {
		return nil
	}
	_, err := s.DeleteByID(ctx, r.ID())
	return err
}

func (s *Store) DeleteByID(ctx context.Context, id models.RequestID) (bool, error) {
	ex := s.execer(ctx)
	res, err := ex.ExecContext(ctx, ex.Rebind(`DELETE FROM requests WHERE id = ?`), id.Int64())
	if err != nil {
		return false, fmt.Errorf("delete request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete request rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.execer(ctx).GetContext(ctx, &n, `SELECT COUNT(*) FROM requests`); err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}
	return n, nil
}

func (s *Store) CountByStatus(ctx context.Context, status models.Status) (int, error) {
	ex := s.execer(ctx)
	var n int
	if err := ex.GetContext(ctx, &n, ex.Rebind(`SELECT COUNT(*) FROM requests WHERE status = ?`), string(status)); err != nil {
		return 0, fmt.Errorf("count requests by status: %w", err)
	}
	return n, nil
}

func (s *Store) Exists(ctx context.Context, id models.RequestID) (bool, error) {
	ex := s.execer(ctx)
	var n int
	if err := ex.GetContext(ctx, &n, ex.Rebind(`SELECT COUNT(*) FROM requests WHERE id = ?`), id.Int64()); err != nil {
		return false, fmt.Errorf("request exists: %w", err)
	}
	return n > 0, nil
}

// NextIdentity cannot be previewed without consuming the sequence.
func (s *Store) NextIdentity(context.Context) (models.RequestID, bool, error) {
	return 0, false, nil
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]*models.Request, error) {
	ex := s.execer(ctx)
	var rows []requestRow
	if err := ex.SelectContext(ctx, &rows, ex.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	out := make([]*models.Request, 0, len(rows))
	for _, row := range rows {
		r, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func whereClause(c models.ListCriteria) (string, []any) {
	var conds []string
	var args []any
	if c.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, string(*c.Status))
	}
	if c.Search != "" {
		conds = append(conds, `LOWER(document_name) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(c.Search))+"%")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
