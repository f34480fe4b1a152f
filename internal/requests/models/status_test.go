package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "solicitudes/pkg/domain-errors"
)

func TestStatusTransitions(t *testing.T) {
	allowed := map[Status]map[Status]bool{
		StatusPending:       {StatusApproved: true, StatusRejected: true, StatusNeedsRevision: true},
		StatusNeedsRevision: {StatusApproved: true, StatusRejected: true, StatusPending: true},
		StatusApproved:      {StatusNeedsRevision: true},
		StatusRejected:      {StatusNeedsRevision: true},
	}

	legal := 0
	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			want := allowed[from][to]
			if want {
				legal++
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.Equal(t, 8, legal)
}

func TestStatusNeverTransitionsToItself(t *testing.T) {
	for _, s := range AllStatuses() {
		assert.False(t, s.CanTransitionTo(s), string(s))
	}
}

func TestStatusPresentation(t *testing.T) {
	cases := []struct {
		status Status
		label  string
		color  string
	}{
		{StatusPending, "Pendiente", "warning"},
		{StatusApproved, "Aprobado", "success"},
		{StatusRejected, "Rechazado", "danger"},
		{StatusNeedsRevision, "Modificar", "info"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.label, tc.status.Label())
		assert.Equal(t, tc.color, tc.status.Color())
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("  Approved ")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, s)

	_, err = ParseStatus("archived")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	assert.False(t, Status("").IsValid())
}

func TestAllowedTransitionsIsACopy(t *testing.T) {
	targets := StatusApproved.AllowedTransitions()
	require.Equal(t, []Status{StatusNeedsRevision}, targets)
	targets[0] = StatusPending
	assert.False(t, StatusApproved.CanTransitionTo(StatusPending))
}
