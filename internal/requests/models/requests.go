package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "solicitudes/pkg/domain-errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CreateRequestRequest is the body of POST /api/solicitudes.
// Length rules live in NewDocumentName; the tag here only bounds payload size.
type CreateRequestRequest struct {
	DocumentName string `json:"document_name" validate:"required,max=1024"`
}

func (r *CreateRequestRequest) Normalize() {
	if r == nil {
		return
	}
	r.DocumentName = strings.TrimSpace(r.DocumentName)
}

func (r *CreateRequestRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validationError(validate.Struct(r))
}

// UpdateStatusRequest is the body of the status PATCH endpoints.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected needs_revision"`
}

func (r *UpdateStatusRequest) Normalize() {
	if r == nil {
		return
	}
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
}

func (r *UpdateStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validationError(validate.Struct(r))
}

// ListRequestsQuery is the raw list input as received from a caller.
// Criteria shapes it: page >= 1, per_page clamped to [1, max], unknown sort
// fields fall back to id desc. A nil PerPage means the caller did not send one.
type ListRequestsQuery struct {
	Page      int    `json:"page"`
	PerPage   *int   `json:"per_page"`
	Status    string `json:"status" validate:"omitempty,oneof=pending approved rejected needs_revision"`
	Search    string `json:"search" validate:"max=255"`
	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"`
}

func (q *ListRequestsQuery) Normalize() {
	if q == nil {
		return
	}
	q.Status = strings.ToLower(strings.TrimSpace(q.Status))
	q.Search = strings.TrimSpace(q.Search)
	q.SortBy = strings.ToLower(strings.TrimSpace(q.SortBy))
	q.SortOrder = strings.ToLower(strings.TrimSpace(q.SortOrder))
}

func (q *ListRequestsQuery) Validate() error {
	if q == nil {
		return nil
	}
	return validationError(validate.Struct(q))
}

// Criteria normalizes and validates q and returns repository criteria.
// An absent PerPage uses defaultPerPage; any given value is clamped to
// [1, maxPerPage].
func (q ListRequestsQuery) Criteria(defaultPerPage, maxPerPage int) (ListCriteria, error) {
	if defaultPerPage < 1 {
		defaultPerPage = DefaultPerPage
	}
	if maxPerPage < 1 {
		maxPerPage = MaxPerPage
	}
	q.Normalize()
	if err := q.Validate(); err != nil {
		return ListCriteria{}, err
	}

	c := ListCriteria{
		Page:      max(q.Page, DefaultPage),
		PerPage:   defaultPerPage,
		Search:    q.Search,
		SortBy:    SortField(q.SortBy),
		SortOrder: SortOrder(q.SortOrder),
	}
	if q.PerPage != nil {
		c.PerPage = *q.PerPage
	}
	c.PerPage = min(max(c.PerPage, 1), maxPerPage)
	if q.Status != "" {
		s := Status(q.Status)
		c.Status = &s
	}
	return c.WithDefaults(), nil
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid request")
	}
	fe := verrs[0]
	field := jsonFieldName(fe.Field())
	switch fe.Tag() {
	case "required":
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s is required", field))
	case "oneof":
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", ")))
	case "max":
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
	default:
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s is invalid", field))
	}
}

func jsonFieldName(structField string) string {
	switch structField {
	case "DocumentName":
		return "document_name"
	case "PerPage":
		return "per_page"
	case "SortBy":
		return "sort_by"
	case "SortOrder":
		return "sort_order"
	default:
		return strings.ToLower(structField)
	}
}
