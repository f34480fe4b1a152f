package models

import (
	"fmt"
	"time"

	dErrors "solicitudes/pkg/domain-errors"
)

// Request is the aggregate root for a document approval request.
//
// Invariants:
//   - ID is absent (zero) until first persistence and is assigned exactly once
//   - DocumentName is always a validated value
//   - Status changes only through ChangeStatus (checked against the transition
//     table) or ForceStatus (administrative override, unchecked)
//   - CreatedAt is immutable after construction
//   - UpdatedAt never precedes CreatedAt and never moves backwards
//   - Version is 0 for an unsaved aggregate; stores bump it on every save
//
// Fields are unexported so that the invariants above cannot be bypassed.
// Stores rebuild aggregates with Reconstitute.
type Request struct {
	id           RequestID
	documentName DocumentName
	status       Status
	createdAt    time.Time
	updatedAt    time.Time
	version      int
}

// NewRequest creates an unsaved request in the pending status.
func NewRequest(name DocumentName, now time.Time) *Request {
	now = now.UTC()
	return &Request{
		documentName: name,
		status:       StatusPending,
		createdAt:    now,
		updatedAt:    now,
	}
}

// NewRequestWithStatus creates an unsaved request with an explicit initial
// status. Used by seeders and fixtures.
func NewRequestWithStatus(name DocumentName, status Status, now time.Time) (*Request, error) {
	if !status.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown status %q", status)
	}
	r := NewRequest(name, now)
	r.status = status
	return r, nil
}

// Reconstitute rebuilds a persisted request without re-deriving invariants.
func Reconstitute(id RequestID, name DocumentName, status Status, createdAt, updatedAt time.Time, version int) *Request {
	return &Request{
		id:           id,
		documentName: name,
		status:       status,
		createdAt:    createdAt.UTC(),
		updatedAt:    updatedAt.UTC(),
		version:      version,
	}
}

func (r *Request) ID() RequestID              { return r.id }
func (r *Request) HasID() bool                { return r.id > 0 }
func (r *Request) DocumentName() DocumentName { return r.documentName }
func (r *Request) Status() Status             { return r.status }
func (r *Request) CreatedAt() time.Time       { return r.createdAt }
func (r *Request) UpdatedAt() time.Time       { return r.updatedAt }
func (r *Request) Version() int               { return r.version }

// AssignID sets the identity after the first insert.
// Assigning twice is a programming error and panics.
func (r *Request) AssignID(id RequestID) {
	if r.HasID() {
		panic(fmt.Sprintf("request id already assigned (%d), refusing %d", r.id, id))
	}
	if id <= 0 {
		panic(fmt.Sprintf("request id must be positive, got %d", id))
	}
	r.id = id
}

// ApplyVersion records the revision written by a store.
func (r *Request) ApplyVersion(version int) {
	r.version = version
}

// CanChangeStatus checks if the request can transition to target.
// Use with ApplyStatus when the check and the mutation happen apart.
func (r *Request) CanChangeStatus(target Status) error {
	if !r.status.CanTransitionTo(target) {
		return &InvalidStateTransitionError{From: r.status, To: target}
	}
	return nil
}

// ApplyStatus sets the status without checking the transition table.
func (r *Request) ApplyStatus(target Status, now time.Time) {
	r.status = target
	r.touch(now)
}

// ChangeStatus validates and applies a transition. On failure nothing changes.
func (r *Request) ChangeStatus(target Status, now time.Time) error {
	if err := r.CanChangeStatus(target); err != nil {
		return err
	}
	r.ApplyStatus(target, now)
	return nil
}

// ForceStatus is the administrative escape hatch: it bypasses the transition
// table entirely and never fails. Callers are responsible for authorizing it.
func (r *Request) ForceStatus(target Status, now time.Time) {
	r.ApplyStatus(target, now)
}

// RenameDocument replaces the document name.
func (r *Request) RenameDocument(name DocumentName, now time.Time) {
	r.documentName = name
	r.touch(now)
}

func (r *Request) touch(now time.Time) {
	now = now.UTC()
	if now.Before(r.updatedAt) {
		now = r.updatedAt
	}
	r.updatedAt = now
}

func (r *Request) CanBeApproved() bool {
	return r.status == StatusPending || r.status == StatusNeedsRevision
}

func (r *Request) CanBeRejected() bool {
	return r.status == StatusPending || r.status == StatusNeedsRevision
}

func (r *Request) CanBeRevised() bool {
	return r.status == StatusApproved || r.status == StatusRejected
}

// CanBeDeleted is true in every status; deletion is a hard delete.
func (r *Request) CanBeDeleted() bool {
	return true
}

func (r *Request) IsPending() bool  { return r.status == StatusPending }
func (r *Request) IsApproved() bool { return r.status == StatusApproved }
func (r *Request) IsRejected() bool { return r.status == StatusRejected }

// Clone returns an independent copy. In-memory stores hand out clones so
// callers cannot mutate stored state without calling Save.
func (r *Request) Clone() *Request {
	c := *r
	return &c
}

// Summary projects the aggregate into its read model.
func (r *Request) Summary() RequestSummary {
	return RequestSummary{
		ID:            r.id.Int64(),
		DocumentName:  r.documentName.String(),
		Status:        r.status,
		StatusLabel:   r.status.Label(),
		StatusColor:   r.status.Color(),
		CreatedAt:     r.createdAt,
		UpdatedAt:     r.updatedAt,
		CanBeApproved: r.CanBeApproved(),
		CanBeRejected: r.CanBeRejected(),
		CanBeRevised:  r.CanBeRevised(),
		CanBeDeleted:  r.CanBeDeleted(),
	}
}
