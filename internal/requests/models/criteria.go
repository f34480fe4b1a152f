package models

const (
	DefaultPage    = 1
	DefaultPerPage = 15
	MaxPerPage     = 100
)

type SortField string

const (
	SortByID           SortField = "id"
	SortByDocumentName SortField = "document_name"
	SortByStatus       SortField = "status"
	SortByCreatedAt    SortField = "created_at"
)

func (f SortField) IsValid() bool {
	switch f {
	case SortByID, SortByDocumentName, SortByStatus, SortByCreatedAt:
		return true
	}
	return false
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func (o SortOrder) IsValid() bool {
	return o == SortAsc || o == SortDesc
}

// ListCriteria is the already-shaped paging, filtering and ordering input of
// Repository.FindAllPaginated. The zero value means page 1, 15 per page,
// newest first.
type ListCriteria struct {
	Page      int
	PerPage   int
	Status    *Status
	Search    string
	SortBy    SortField
	SortOrder SortOrder
}

// WithDefaults fills zero or unknown fields with their defaults. It does not
// clamp PerPage; that happens where the criteria are built from user input.
func (c ListCriteria) WithDefaults() ListCriteria {
	if c.Page < 1 {
		c.Page = DefaultPage
	}
	if c.PerPage < 1 {
		c.PerPage = DefaultPerPage
	}
	if !c.SortBy.IsValid() {
		c.SortBy = SortByID
	}
	if !c.SortOrder.IsValid() {
		c.SortOrder = SortDesc
	}
	return c
}

// Offset is the number of rows skipped before the current page.
func (c ListCriteria) Offset() int {
	return (c.Page - 1) * c.PerPage
}
