// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/segmentio/kafka-go"

	"github.com/pdiddy/genocode/pkg/types"
)

// DefaultTopic is used when no Kafka topic is configured.
const DefaultTopic = "genocode-events"

// MessageWriter is the subset of kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes structured-mode CloudEvents keyed by subject, so every
// event for one subject lands on the same partition.
type Kafka struct {
	Writer MessageWriter
}

// NewKafka returns a publisher writing to cfg.Topic on cfg.Brokers.
func NewKafka(cfg types.EventsConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	return &Kafka{Writer: &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}}, nil
}

// Publish writes the event as one message.
func (k *Kafka) Publish(ctx context.Context, event cloudevents.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.Subject()),
		Value: body,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/cloudevents+json")},
			{Key: "ce_type", Value: []byte(event.Type())},
		},
	}
	if err := k.Writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing %s to kafka: %w", event.Type(), err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *Kafka) Close() error {
	return k.Writer.Close()
}
