// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package events publishes CloudEvents notifications when subject data
// changes. Payloads carry pseudonyms and counts only, never genotype calls.
package events

import (
	"context"
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"

	"github.com/pdiddy/genocode/pkg/types"
)

// Event types.
const (
	TypeUploadImported = "genocode.upload.imported"
	TypeConsentRevoked = "genocode.consent.revoked"
	TypeSubjectDeleted = "genocode.subject.deleted"
)

// DefaultSource is the CloudEvents source when none is configured.
const DefaultSource = "genocode"

// UploadImported is the payload of TypeUploadImported.
type UploadImported struct {
	UploadID   string          `json:"upload_id"`
	Format     types.RawFormat `json:"format"`
	Calls      int             `json:"calls"`
	Covered    int             `json:"covered"`
	ArchiveKey string          `json:"archive_key,omitempty"`
}

// DataRemoved is the payload of TypeConsentRevoked and TypeSubjectDeleted.
type DataRemoved struct {
	Uploads int `json:"uploads"`
}

// Publisher delivers events to a transport.
type Publisher interface {
	Publish(ctx context.Context, event cloudevents.Event) error
	Close() error
}

// New builds an event with a fresh ID. subject is the pseudonym the event
// concerns.
func New(source, eventType, subject string, data any) (cloudevents.Event, error) {
	if source == "" {
		source = DefaultSource
	}
	event := cloudevents.NewEvent()
	event.SetID(uuid.NewString())
	event.SetType(eventType)
	event.SetSource(source)
	event.SetSubject(subject)
	event.SetTime(time.Now().UTC())
	if err := event.SetData(cloudevents.ApplicationJSON, data); err != nil {
		return event, fmt.Errorf("encoding %s data: %w", eventType, err)
	}
	if err := event.Validate(); err != nil {
		return event, fmt.Errorf("invalid %s event: %w", eventType, err)
	}
	return event, nil
}

// NewPublisher builds the publisher selected by cfg.
func NewPublisher(ctx context.Context, cfg types.EventsConfig) (Publisher, error) {
	switch cfg.Backend {
	case "", types.EventsNone:
		return Nop{}, nil
	case types.EventsKafka:
		return NewKafka(cfg)
	case types.EventsSQS:
		return NewSQS(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, cloudevents.Event) error { return nil }
func (Nop) Close() error { return nil }
