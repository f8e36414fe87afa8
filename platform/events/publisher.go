// Package events publishes check results to message brokers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dhima/version-watch/internal/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventTypeCheckCompleted is the type of every published result event.
const EventTypeCheckCompleted = "version_check.completed"

// ResultEvent is the envelope published for each terminal check result.
type ResultEvent struct {
	EventID     string             `json:"event_id"`
	Type        string             `json:"type"`
	Result      models.CheckResult `json:"result"`
	PublishedAt time.Time          `json:"published_at"`
}

// NewResultEvent wraps r in a fresh envelope.
func NewResultEvent(r models.CheckResult) ResultEvent {
	return ResultEvent{
		EventID:     uuid.New().String(),
		Type:        EventTypeCheckCompleted,
		Result:      r,
		PublishedAt: time.Now().UTC(),
	}
}

// Publisher emits check results to Kafka.
type Publisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewPublisher builds a synchronous Kafka publisher that waits for all
// in-sync replicas.
func NewPublisher(brokers []string, topic string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  3,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger.With(zap.String("component", "kafka_publisher")),
	}
}

// Publish writes one result event keyed by check ID.
func (p *Publisher) Publish(ctx context.Context, r models.CheckResult) error {
	event := NewResultEvent(r)
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal result event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(r.ID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "status", Value: []byte(r.Status)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish result event",
			zap.String("event_id", event.EventID),
			zap.String("check_id", r.ID),
			zap.Error(err))
		return fmt.Errorf("publish result event: %w", err)
	}

	p.logger.Debug("result event published",
		zap.String("event_id", event.EventID),
		zap.String("check_id", r.ID),
		zap.String("topic", p.writer.Topic))
	return nil
}

// Close flushes and closes the writer. It is safe to call more than once.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
