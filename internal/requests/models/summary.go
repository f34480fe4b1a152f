package models

import "time"

// RequestSummary is the presentation-ready projection of a Request.
// ID is 0 only for aggregates that were never persisted.
type RequestSummary struct {
	ID            int64     `json:"id"`
	DocumentName  string    `json:"document_name"`
	Status        Status    `json:"status"`
	StatusLabel   string    `json:"status_label"`
	StatusColor   string    `json:"status_color"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	CanBeApproved bool      `json:"can_be_approved"`
	CanBeRejected bool      `json:"can_be_rejected"`
	CanBeRevised  bool      `json:"can_be_revised"`
	CanBeDeleted  bool      `json:"can_be_deleted"`
}

// Stats counts requests in total and per status.
type Stats struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"by_status"`
}
