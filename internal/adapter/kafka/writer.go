package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/flood-recovery-service/internal/config"
	"github.com/couchcryptid/flood-recovery-service/internal/domain"
)

// Writer produces processed flood event results to a Kafka topic.
// It implements analysis.ResultPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured results topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaResultsTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes one result and writes it to the results topic,
// keyed by the event ID.
func (w *Writer) Publish(ctx context.Context, id string, result *domain.FloodEventResult) error {
	msg, err := serializeToMessage(id, result)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing result message: %w", err)
	}
	w.logger.Debug("result published", "event_id", id)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a stored result into a Kafka message.
func serializeToMessage(id string, result *domain.FloodEventResult) (kafkago.Message, error) {
	data, err := json.Marshal(domain.StoredEvent{ID: id, Result: *result})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize flood event result: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(id),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_id", Value: []byte(id)},
			{Key: "processed_at", Value: []byte(result.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
