package models

import (
	"strings"

	dErrors "solicitudes/pkg/domain-errors"
)

// Status is the lifecycle state of a request.
type Status string

const (
	StatusPending       Status = "pending"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
	StatusNeedsRevision Status = "needs_revision"
)

// transitions is the adjacency table of legal status changes. Self loops are
// never legal.
var transitions = map[Status][]Status{
	StatusPending:       {StatusApproved, StatusRejected, StatusNeedsRevision},
	StatusNeedsRevision: {StatusApproved, StatusRejected, StatusPending},
	StatusApproved:      {StatusNeedsRevision},
	StatusRejected:      {StatusNeedsRevision},
}

var statusLabels = map[Status]string{
	StatusPending:       "Pendiente",
	StatusApproved:      "Aprobado",
	StatusRejected:      "Rechazado",
	StatusNeedsRevision: "Modificar",
}

var statusColors = map[Status]string{
	StatusPending:       "warning",
	StatusApproved:      "success",
	StatusRejected:      "danger",
	StatusNeedsRevision: "info",
}

// AllStatuses returns every status in declaration order.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusRejected, StatusNeedsRevision}
}

// ParseStatus converts a wire value into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", dErrors.Newf(dErrors.CodeValidation,
			"status must be one of pending, approved, rejected, needs_revision (got %q)", raw)
	}
	return s, nil
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) String() string {
	return string(s)
}

// Label is the human readable name of the status.
func (s Status) Label() string {
	return statusLabels[s]
}

// Color is the UI tag associated with the status.
func (s Status) Color() string {
	return statusColors[s]
}

// CanTransitionTo reports whether moving from s to target is a legal transition.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// AllowedTransitions returns a copy of the targets reachable from s.
func (s Status) AllowedTransitions() []Status {
	out := make([]Status, len(transitions[s]))
	copy(out, transitions[s])
	return out
}
