// Package kafkafeed publishes nearby-event changes to a Kafka topic for
// downstream consumers such as notification services. Delivery to end users
// is those consumers' concern; this adapter only announces the change.
package kafkafeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/aidhaven/incident-aggregation/internal/domain"
)

// Writer produces nearby-event messages to the feed topic.
// It implements service.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the feed topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes one nearby event and writes it to the feed topic,
// keyed by event ID so updates to the same event stay ordered per partition.
func (w *Writer) Publish(ctx context.Context, event domain.NearbyEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a NearbyEvent into a Kafka message.
func serializeToMessage(event domain.NearbyEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize nearby event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(event.Source)},
			{Key: "category", Value: []byte(event.Category)},
			{Key: "updated_at", Value: []byte(event.UpdatedAt.Format(time.RFC3339))},
		},
	}, nil
}
