// Package kafka adapts the engine to its broker: alert events go out on
// the alert topic, environmental readings come in from the readings
// topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/beach-status-engine/internal/config"
	"github.com/couchcryptid/beach-status-engine/internal/domain"
)

// AlertWriter produces alert events to the alert topic. It implements
// alert.Dispatcher.
type AlertWriter struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewAlertWriter creates a Kafka producer for the configured alert topic.
func NewAlertWriter(cfg *config.Config, logger *slog.Logger) *AlertWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAlertTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &AlertWriter{writer: w, logger: logger}
}

// EmitAlert publishes one alert event, keyed by beach so per-beach
// ordering survives partitioning.
func (w *AlertWriter) EmitAlert(ctx context.Context, event domain.AlertEvent) error {
	msg, err := serializeAlert(event)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write alert %s: %w", event.ID, err)
	}
	return nil
}

func (w *AlertWriter) Close() error {
	return w.writer.Close()
}

// serializeAlert marshals an AlertEvent into a Kafka message.
func serializeAlert(event domain.AlertEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.FormatInt(event.BeachID, 10)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "rule_id", Value: []byte(event.RuleID)},
			{Key: "emitted_at", Value: []byte(event.At.Format(time.RFC3339))},
		},
	}, nil
}
