package models

import (
	"strings"
	"unicode/utf8"
)

const (
	DocumentNameMinLength = 3
	DocumentNameMaxLength = 255
)

// DocumentName is the validated, trimmed name of the document under review.
// Length is counted in Unicode code points.
type DocumentName struct {
	value string
}

// NewDocumentName trims raw and validates its length.
func NewDocumentName(raw string) (DocumentName, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DocumentName{}, &InvalidDocumentNameError{Reason: DocumentNameEmpty}
	}
	n := utf8.RuneCountInString(trimmed)
	if n < DocumentNameMinLength {
		return DocumentName{}, &InvalidDocumentNameError{Reason: DocumentNameTooShort, Value: trimmed}
	}
	if n > DocumentNameMaxLength {
		return DocumentName{}, &InvalidDocumentNameError{Reason: DocumentNameTooLong}
	}
	return DocumentName{value: trimmed}, nil
}

// MustDocumentName panics on invalid input. For fixtures and seed data only.
func MustDocumentName(raw string) DocumentName {
	name, err := NewDocumentName(raw)
	if err != nil {
		panic(err)
	}
	return name
}

func (d DocumentName) String() string {
	return d.value
}

func (d DocumentName) Equals(other DocumentName) bool {
	return d.value == other.value
}

func (d DocumentName) IsZero() bool {
	return d.value == ""
}
