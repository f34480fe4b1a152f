package models

import (
	"errors"
	"fmt"

	dErrors "solicitudes/pkg/domain-errors"
)

// Sentinels matched by errors.Is against the typed errors below.
var (
	ErrInvalidDocumentName    = errors.New("invalid document name")
	ErrInvalidRequestID       = errors.New("invalid request id")
	ErrRequestNotFound        = errors.New("request not found")
	ErrInvalidStateTransition = errors.New("invalid state transition")
)

type DocumentNameReason string

const (
	DocumentNameEmpty    DocumentNameReason = "empty"
	DocumentNameTooShort DocumentNameReason = "too_short"
	DocumentNameTooLong  DocumentNameReason = "too_long"
)

// InvalidDocumentNameError is returned when a document name fails validation.
type InvalidDocumentNameError struct {
	Reason DocumentNameReason
	Value  string
}

func (e *InvalidDocumentNameError) Error() string {
	switch e.Reason {
	case DocumentNameEmpty:
		return "document name cannot be empty"
	case DocumentNameTooShort:
		return fmt.Sprintf("document name %q is too short, minimum %d characters", e.Value, DocumentNameMinLength)
	default:
		return fmt.Sprintf("document name is too long, maximum %d characters", DocumentNameMaxLength)
	}
}

func (e *InvalidDocumentNameError) Is(target error) bool { return target == ErrInvalidDocumentName }

func (e *InvalidDocumentNameError) Code() dErrors.Code { return dErrors.CodeValidation }

type RequestIDReason string

const (
	RequestIDNotPositive RequestIDReason = "not_positive"
	RequestIDNotNumeric  RequestIDReason = "not_numeric"
)

// InvalidRequestIDError is returned for ids that are not positive integers.
type InvalidRequestIDError struct {
	Reason RequestIDReason
	Value  string
}

func (e *InvalidRequestIDError) Error() string {
	if e.Reason == RequestIDNotNumeric {
		return fmt.Sprintf("request id must be numeric, got %q", e.Value)
	}
	return fmt.Sprintf("request id must be greater than 0, got %s", e.Value)
}

func (e *InvalidRequestIDError) Is(target error) bool { return target == ErrInvalidRequestID }

func (e *InvalidRequestIDError) Code() dErrors.Code { return dErrors.CodeValidation }

// RequestNotFoundError is returned by strict lookups.
type RequestNotFoundError struct {
	ID RequestID
}

func (e *RequestNotFoundError) Error() string {
	return fmt.Sprintf("request %d not found", e.ID)
}

func (e *RequestNotFoundError) Is(target error) bool { return target == ErrRequestNotFound }

func (e *RequestNotFoundError) Code() dErrors.Code { return dErrors.CodeNotFound }

// InvalidStateTransitionError is returned by ChangeStatus for illegal moves.
type InvalidStateTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("cannot change status from %q to %q", e.From.Label(), e.To.Label())
}

func (e *InvalidStateTransitionError) Is(target error) bool {
	return target == ErrInvalidStateTransition
}

func (e *InvalidStateTransitionError) Code() dErrors.Code {
	return dErrors.CodeInvalidStateTransition
}
