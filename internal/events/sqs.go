// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/pdiddy/genocode/internal/awsutil"
	"github.com/pdiddy/genocode/pkg/types"
)

// SQSAPI is the subset of the SQS client the publisher uses.
type SQSAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQS publishes structured-mode CloudEvents to a queue. The event type is
// copied into a message attribute for subscription filters.
type SQS struct {
	Client   SQSAPI
	QueueURL string
}

// NewSQS resolves cfg.QueueName to a URL and returns a publisher for it.
func NewSQS(ctx context.Context, cfg types.EventsConfig) (*SQS, error) {
	if cfg.QueueName == "" {
		return nil, errors.New("sqs queue name is required")
	}
	awsCfg, err := awsutil.Load(ctx, cfg.Region, cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	client := sqs.NewFromConfig(awsCfg)
	out, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(cfg.QueueName)})
	if err != nil {
		return nil, fmt.Errorf("resolving queue %s: %w", cfg.QueueName, err)
	}
	return &SQS{Client: client, QueueURL: aws.ToString(out.QueueUrl)}, nil
}

// Publish sends the event as one message.
func (q *SQS) Publish(ctx context.Context, event cloudevents.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	_, err = q.Client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.QueueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"ce_type": {DataType: aws.String("String"), StringValue: aws.String(event.Type())},
		},
	})
	if err != nil {
		return fmt.Errorf("publishing %s to sqs: %w", event.Type(), err)
	}
	return nil
}

// Close is a no-op; the SQS client holds no connection.
func (q *SQS) Close() error { return nil }
