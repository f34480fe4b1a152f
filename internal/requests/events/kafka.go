package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"solicitudes/internal/requests/models"
)

const HeaderEventName = "event_name"

// Producer is the part of *kgo.Client the dispatcher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Message is the JSON value written for each event.
type Message struct {
	Event      string         `json:"event"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data"`
}

// KafkaDispatcher publishes events to a topic, keyed by request id so every
// event of one request lands on the same partition in order.
type KafkaDispatcher struct {
	producer Producer
	topic    string
	logger   *slog.Logger
}

func NewKafkaDispatcher(producer Producer, topic string, logger *slog.Logger) *KafkaDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaDispatcher{producer: producer, topic: topic, logger: logger}
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, event models.Event) error {
	return d.DispatchAll(ctx, []models.Event{event})
}

// DispatchAll produces the batch synchronously and returns the first
// produce error.
func (d *KafkaDispatcher) DispatchAll(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	records := make([]*kgo.Record, 0, len(events))
	for _, e := range events {
		rec, err := d.record(e)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}

	if err := d.producer.ProduceSync(ctx, records...).FirstErr(); err != nil {
		d.logger.ErrorContext(ctx, "failed to publish request events",
			"topic", d.topic,
			"count", len(records),
			"error", err,
		)
		return fmt.Errorf("publish events to %s: %w", d.topic, err)
	}
	return nil
}

func (d *KafkaDispatcher) record(e models.Event) (*kgo.Record, error) {
	value, err := json.Marshal(Message{
		Event:      e.Name(),
		OccurredAt: e.OccurredAt().UTC(),
		Data:       e.Payload(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", e.Name(), err)
	}
	return &kgo.Record{
		Topic: d.topic,
		Key:   []byte(e.AggregateID().String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: HeaderEventName, Value: []byte(e.Name())},
		},
	}, nil
}
