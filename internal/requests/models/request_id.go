package models

import (
	"strconv"
	"strings"
)

// RequestID identifies a persisted request. Always > 0.
type RequestID int64

// NewRequestID validates that value is positive.
func NewRequestID(value int64) (RequestID, error) {
	if value <= 0 {
		return 0, &InvalidRequestIDError{Reason: RequestIDNotPositive, Value: strconv.FormatInt(value, 10)}
	}
	return RequestID(value), nil
}

// ParseRequestID parses a decimal string such as a URL path segment.
func ParseRequestID(raw string) (RequestID, error) {
	trimmed := strings.TrimSpace(raw)
	value, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, &InvalidRequestIDError{Reason: RequestIDNotNumeric, Value: raw}
	}
	return NewRequestID(value)
}

func (id RequestID) Int64() int64 {
	return int64(id)
}

func (id RequestID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func (id RequestID) Equals(other RequestID) bool {
	return id == other
}
