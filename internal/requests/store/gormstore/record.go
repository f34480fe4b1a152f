package gormstore

import (
	"fmt"
	"time"

	"solicitudes/internal/requests/models"
)

// Timestamps come from the aggregate, so GORM's auto time tracking is off.
type requestRecord struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	DocumentName string    `gorm:"column:document_name"`
	Status       string    `gorm:"column:status"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
	Version      int       `gorm:"column:version"`
}

func (requestRecord) TableName() string { return "requests" }

func toRecord(r *models.Request) requestRecord {
	return requestRecord{
		ID:           r.ID().Int64(),
		DocumentName: r.DocumentName().String(),
		Status:       string(r.Status()),
		CreatedAt:    r.CreatedAt().UTC(),
		UpdatedAt:    r.UpdatedAt().UTC(),
		Version:      r.Version(),
	}
}

func toDomain(rec requestRecord) (*models.Request, error) {
	id, err := models.NewRequestID(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("corrupt request record: %w", err)
	}
	name, err := models.NewDocumentName(rec.DocumentName)
	if err != nil {
		return nil, fmt.Errorf("corrupt request record %d: %w", rec.ID, err)
	}
	status, err := models.ParseStatus(rec.Status)
	if err != nil {
		return nil, fmt.Errorf("corrupt request record %d: %w", rec.ID, err)
	}
	return models.Reconstitute(id, name, status, rec.CreatedAt.UTC(), rec.UpdatedAt.UTC(), rec.Version), nil
}

func toDomainList(recs []requestRecord) ([]*models.Request, error) {
	out := make([]*models.Request, 0, len(recs))
	for _, rec := range recs {
		r, err := toDomain(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
