// Package events implements ports.EventDispatcher: an in-process listener
// registry, a Kafka producer and a fan-out combinator.
package events

import (
	"context"
	"errors"
	"sync"

	"solicitudes/internal/requests/models"
	"solicitudes/internal/requests/ports"
)

// Listener handles one dispatched event.
type Listener func(ctx context.Context, event models.Event) error

// Nop drops every event.
type Nop struct{}

func (Nop) Dispatch(context.Context, models.Event) error      { return nil }
func (Nop) DispatchAll(context.Context, []models.Event) error { return nil }

// InMemory delivers events synchronously to listeners registered by name and,
// when built with NewInMemory, records every dispatched event in order.
type InMemory struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
	record    bool
	recorded  []models.Event
}

func NewInMemory() *InMemory {
	return &InMemory{listeners: make(map[string][]Listener), record: true}
}

// NewInProcess returns a dispatcher that only runs listeners. Long-running
// processes use it so the record does not grow without bound.
func NewInProcess() *InMemory {
	return &InMemory{listeners: make(map[string][]Listener)}
}

// Listen registers fn for events named name. Listeners run in registration order.
func (d *InMemory) Listen(name string, fn Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[name] = append(d.listeners[name], fn)
}

// Dispatch runs the listeners registered when the call starts. The first
// listener error stops delivery and is returned.
func (d *InMemory) Dispatch(ctx context.Context, event models.Event) error {
	d.mu.Lock()
	if d.record {
		d.recorded = append(d.recorded, event)
	}
	listeners := append([]Listener(nil), d.listeners[event.Name()]...)
	d.mu.Unlock()

	for _, fn := range listeners {
		if err := fn(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (d *InMemory) DispatchAll(ctx context.Context, events []models.Event) error {
	for _, e := range events {
		if err := d.Dispatch(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Recorded returns a copy of every event dispatched so far.
func (d *InMemory) Recorded() []models.Event {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]models.Event(nil), d.recorded...)
}

// RecordedNames lists the names of dispatched events in order.
func (d *InMemory) RecordedNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.recorded))
	for _, e := range d.recorded {
		names = append(names, e.Name())
	}
	return names
}

func (d *InMemory) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recorded = nil
}

// Multi fans an event out to every dispatcher. All dispatchers are tried;
// their errors are joined.
type Multi []ports.EventDispatcher

func (m Multi) Dispatch(ctx context.Context, event models.Event) error {
	var errs []error
	for _, d := range m {
		if err := d.Dispatch(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) DispatchAll(ctx context.Context, events []models.Event) error {
	var errs []error
	for _, d := range m {
		if err := d.DispatchAll(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
