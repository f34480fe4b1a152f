package models

import "time"

// Event names are stable keys used for listener registration and as the
// event_name header on the Kafka topic.
const (
	EventRequestCreated       = "request.created"
	EventRequestDeleted       = "request.deleted"
	EventRequestStatusChanged = "request.status_changed"
)

// Event is an immutable fact about a request. OccurredAt is fixed at
// construction.
type Event interface {
	Name() string
	OccurredAt() time.Time
	AggregateID() RequestID
	Payload() map[string]any
}

type RequestCreated struct {
	ID           RequestID
	DocumentName string
	Status       Status
	At           time.Time
}

func NewRequestCreated(r *Request, now time.Time) RequestCreated {
	return RequestCreated{ID: r.ID(), DocumentName: r.DocumentName().String(), Status: r.Status(), At: now.UTC()}
}

func (e RequestCreated) Name() string           { return EventRequestCreated }
func (e RequestCreated) OccurredAt() time.Time  { return e.At }
func (e RequestCreated) AggregateID() RequestID { return e.ID }
func (e RequestCreated) Payload() map[string]any {
	return map[string]any{
		"id":            e.ID.Int64(),
		"document_name": e.DocumentName,
		"status":        string(e.Status),
	}
}

type RequestDeleted struct {
	ID           RequestID
	DocumentName string
	At           time.Time
}

func NewRequestDeleted(r *Request, now time.Time) RequestDeleted {
	return RequestDeleted{ID: r.ID(), DocumentName: r.DocumentName().String(), At: now.UTC()}
}

func (e RequestDeleted) Name() string           { return EventRequestDeleted }
func (e RequestDeleted) OccurredAt() time.Time  { return e.At }
func (e RequestDeleted) AggregateID() RequestID { return e.ID }
func (e RequestDeleted) Payload() map[string]any {
	return map[string]any{
		"id":            e.ID.Int64(),
		"document_name": e.DocumentName,
	}
}

type RequestStatusChanged struct {
	ID             RequestID
	PreviousStatus Status
	NewStatus      Status
	Forced         bool
	At             time.Time
}

func NewRequestStatusChanged(r *Request, previous Status, forced bool, now time.Time) RequestStatusChanged {
	return RequestStatusChanged{ID: r.ID(), PreviousStatus: previous, NewStatus: r.Status(), Forced: forced, At: now.UTC()}
}

func (e RequestStatusChanged) Name() string           { return EventRequestStatusChanged }
func (e RequestStatusChanged) OccurredAt() time.Time  { return e.At }
func (e RequestStatusChanged) AggregateID() RequestID { return e.ID }
func (e RequestStatusChanged) Payload() map[string]any {
	return map[string]any{
		"id":              e.ID.Int64(),
		"previous_status": string(e.PreviousStatus),
		"new_status":      string(e.NewStatus),
		"forced":          e.Forced,
	}
}
