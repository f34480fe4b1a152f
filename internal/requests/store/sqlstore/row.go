package sqlstore

import (
	"database/sql/driver"
	"fmt"
	"time"

	"solicitudes/internal/requests/models"
)

type requestRow struct {
	ID           int64  `db:"id"`
	DocumentName string `db:"document_name"`
	Status       string `db:"status"`
	CreatedAt    dbTime `db:"created_at"`
	UpdatedAt    dbTime `db:"updated_at"`
	Version      int    `db:"version"`
}

func (row requestRow) toDomain() (*models.Request, error) {
	id, err := models.NewRequestID(row.ID)
	if err != nil {
		return nil, fmt.Errorf("corrupt request row: %w", err)
	}
	name, err := models.NewDocumentName(row.DocumentName)
	if err != nil {
		return nil, fmt.Errorf("corrupt request row %d: %w", row.ID, err)
	}
	status, err := models.ParseStatus(row.Status)
	if err != nil {
		return nil, fmt.Errorf("corrupt request row %d: %w", row.ID, err)
	}
	return models.Reconstitute(id, name, status, row.CreatedAt.Time, row.UpdatedAt.Time, row.Version), nil
}

// dbTime scans timestamps from drivers that return time.Time (pgx, lib/pq)
// as well as SQLite, which may hand back text.
type dbTime struct {
	time.Time
}

var sqliteLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		return fmt.Errorf("timestamp is NULL")
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (t *dbTime) parse(s string) error {
	for _, layout := range sqliteLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}

func (t dbTime) Value() (driver.Value, error) {
	return t.Time.UTC(), nil
}
