package kafkanotify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"tradlyst/internal/domain"
	"tradlyst/internal/ports"
)

// ImportEvent is the message published for every finished import run.
type ImportEvent struct {
	UserID       string    `json:"user_id"`
	Source       string    `json:"source"`
	Status       string    `json:"status"`
	Total        int       `json:"total"`
	SuccessCount int       `json:"success_count"`
	FailureCount int       `json:"failure_count"`
	Errors       []string  `json:"errors"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher implements ports.ImportNotifier on a Kafka topic.
type Publisher struct {
	writer messageWriter
	logger ports.Logger
	topic  string
}

// NewPublisher constructs a Publisher backed by a kafka.Writer.
func NewPublisher(brokers []string, topic string, logger ports.Logger) (*Publisher, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, fmt.Errorf("%w: kafka brokers and topic are required", ports.ErrConfigurationError)
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for Kafka publisher")
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      brokers,
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // Same user, same partition
		Dialer:       dialer,
		BatchTimeout: 200 * time.Millisecond,
		RequiredAcks: int(kafka.RequireOne),
	})
	return newPublisher(w, topic, logger), nil
}

func newPublisher(w messageWriter, topic string, logger ports.Logger) *Publisher {
	return &Publisher{writer: w, logger: logger, topic: topic}
}

// ImportCompleted publishes the outcome keyed by user ID.
func (p *Publisher) ImportCompleted(ctx context.Context, userID string, outcome *domain.ImportOutcome) error {
	event := ImportEvent{
		UserID:       userID,
		Source:       outcome.Source,
		Status:       string(outcome.Status),
		Total:        outcome.Total,
		SuccessCount: outcome.SuccessCount,
		FailureCount: outcome.FailureCount,
		Errors:       outcome.Errors,
		StartedAt:    outcome.StartedAt,
		FinishedAt:   outcome.FinishedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode import event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(userID),
		Value: payload,
		Time:  outcome.FinishedAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish import event to %s: %w", p.topic, err)
	}
	p.logger.Debug(ctx, "Import event published", map[string]interface{}{"topic": p.topic, "userID": userID})
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
