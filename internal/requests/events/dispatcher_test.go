package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"solicitudes/internal/requests/models"
	"solicitudes/internal/requests/ports"
)

var (
	_ ports.EventDispatcher = Nop{}
	_ ports.EventDispatcher = (*InMemory)(nil)
	_ ports.EventDispatcher = Multi{}
	_ ports.EventDispatcher = (*KafkaDispatcher)(nil)
)

var at = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func created(id models.RequestID) models.Event {
	return models.RequestCreated{ID: id, DocumentName: "Contrato", Status: models.StatusPending, At: at}
}

func deleted(id models.RequestID) models.Event {
	return models.RequestDeleted{ID: id, DocumentName: "Contrato", At: at}
}

func TestInMemoryDeliversInOrder(t *testing.T) {
	d := NewInMemory()
	var seen []string
	d.Listen(models.EventRequestCreated, func(_ context.Context, e models.Event) error {
		seen = append(seen, "first:"+e.AggregateID().String())
		return nil
	})
	d.Listen(models.EventRequestCreated, func(_ context.Context, e models.Event) error {
		seen = append(seen, "second:"+e.AggregateID().String())
		return nil
	})

	require.NoError(t, d.DispatchAll(context.Background(), []models.Event{created(1), deleted(1), created(2)}))

	assert.Equal(t, []string{"first:1", "second:1", "first:2", "second:2"}, seen)
	assert.Equal(t, []string{
		models.EventRequestCreated, models.EventRequestDeleted, models.EventRequestCreated,
	}, d.RecordedNames())

	d.Clear()
	assert.Empty(t, d.Recorded())
}

func TestInMemoryListenerRegisteredDuringDispatchIsNotCalled(t *testing.T) {
	d := NewInMemory()
	var late int
	d.Listen(models.EventRequestCreated, func(context.Context, models.Event) error {
		d.Listen(models.EventRequestCreated, func(context.Context, models.Event) error {
			late++
			return nil
		})
		return nil
	})

	require.NoError(t, d.Dispatch(context.Background(), created(1)))
	assert.Zero(t, late)
}

func TestInProcessRunsListenersWithoutRecording(t *testing.T) {
	d := NewInProcess()
	calls := 0
	d.Listen(models.EventRequestCreated, func(context.Context, models.Event) error {
		calls++
		return nil
	})

	require.NoError(t, d.Dispatch(context.Background(), created(1)))
	assert.Equal(t, 1, calls)
	assert.Empty(t, d.Recorded())
}

func TestInMemoryListenerErrorStopsDelivery(t *testing.T) {
	d := NewInMemory()
	boom := errors.New("boom")
	called := false
	d.Listen(models.EventRequestDeleted, func(context.Context, models.Event) error { return boom })
	d.Listen(models.EventRequestDeleted, func(context.Context, models.Event) error {
		called = true
		return nil
	})

	err := d.Dispatch(context.Background(), deleted(3))
	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
	assert.Len(t, d.Recorded(), 1)
}

type failingDispatcher struct{ err error }

func (f failingDispatcher) Dispatch(context.Context, models.Event) error      { return f.err }
func (f failingDispatcher) DispatchAll(context.Context, []models.Event) error { return f.err }

func TestMultiTriesEveryDispatcher(t *testing.T) {
	boom := errors.New("broker down")
	mem := NewInMemory()
	m := Multi{failingDispatcher{err: boom}, mem}

	err := m.Dispatch(context.Background(), created(9))
	assert.ErrorIs(t, err, boom)
	assert.Len(t, mem.Recorded(), 1)

	require.NoError(t, Multi{Nop{}, mem}.DispatchAll(context.Background(), []models.Event{deleted(9)}))
	assert.Len(t, mem.Recorded(), 2)
}

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (p *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	p.records = append(p.records, rs...)
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		results = append(results, kgo.ProduceResult{Record: r, Err: p.err})
	}
	return results
}

func TestKafkaDispatcherEncodesRecords(t *testing.T) {
	p := &fakeProducer{}
	d := NewKafkaDispatcher(p, "solicitudes.events", nil)

	changed := models.RequestStatusChanged{
		ID: 42, PreviousStatus: models.StatusPending, NewStatus: models.StatusApproved, At: at,
	}
	require.NoError(t, d.Dispatch(context.Background(), changed))
	require.Len(t, p.records, 1)

	rec := p.records[0]
	assert.Equal(t, "solicitudes.events", rec.Topic)
	assert.Equal(t, []byte("42"), rec.Key)
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, HeaderEventName, rec.Headers[0].Key)
	assert.Equal(t, []byte(models.EventRequestStatusChanged), rec.Headers[0].Value)

	var msg Message
	require.NoError(t, json.Unmarshal(rec.Value, &msg))
	assert.Equal(t, models.EventRequestStatusChanged, msg.Event)
	assert.True(t, at.Equal(msg.OccurredAt))
	assert.Equal(t, "approved", msg.Data["new_status"])
	assert.Equal(t, float64(42), msg.Data["id"])
}

func TestKafkaDispatcherReturnsProduceError(t *testing.T) {
	boom := errors.New("not leader for partition")
	d := NewKafkaDispatcher(&fakeProducer{err: boom}, "t", nil)

	err := d.DispatchAll(context.Background(), []models.Event{created(1), created(2)})
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, d.DispatchAll(context.Background(), nil))
}
