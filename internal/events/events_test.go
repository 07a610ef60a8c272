// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/genocode/pkg/types"
)

func uploadEvent(t *testing.T) cloudevents.Event {
	t.Helper()
	e, err := New("", TypeUploadImported, "a1b2c3", UploadImported{
		UploadID: "u-1", Format: types.Format23andMe, Calls: 610000, Covered: 3,
	})
	require.NoError(t, err)
	return e
}

func TestNew(t *testing.T) {
	e := uploadEvent(t)
	assert.Equal(t, DefaultSource, e.Source())
	assert.Equal(t, TypeUploadImported, e.Type())
	assert.Equal(t, "a1b2c3", e.Subject())
	assert.NotEmpty(t, e.ID())
	assert.False(t, e.Time().IsZero())
	assert.Equal(t, cloudevents.ApplicationJSON, e.DataContentType())

	var data UploadImported
	require.NoError(t, e.DataAs(&data))
	assert.Equal(t, "u-1", data.UploadID)
	assert.Equal(t, 3, data.Covered)

	other := uploadEvent(t)
	assert.NotEqual(t, e.ID(), other.ID())
}

func TestNewRejectsMissingType(t *testing.T) {
	_, err := New("genocode", "", "s", DataRemoved{})
	assert.Error(t, err)
}

func TestNewPublisher(t *testing.T) {
	ctx := context.Background()

	p, err := NewPublisher(ctx, types.EventsConfig{})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, p)
	assert.NoError(t, p.Publish(ctx, uploadEvent(t)))
	assert.NoError(t, p.Close())

	p, err = NewPublisher(ctx, types.EventsConfig{Backend: types.EventsKafka, Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	k := p.(*Kafka)
	w := k.Writer.(*kafka.Writer)
	assert.Equal(t, DefaultTopic, w.Topic)
	assert.NoError(t, p.Close())

	_, err = NewPublisher(ctx, types.EventsConfig{Backend: types.EventsKafka})
	assert.ErrorContains(t, err, "brokers")

	_, err = NewPublisher(ctx, types.EventsConfig{Backend: types.EventsSQS})
	assert.ErrorContains(t, err, "queue name")

	_, err = NewPublisher(ctx, types.EventsConfig{Backend: "nats"})
	assert.ErrorContains(t, err, "unknown events backend")
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublish(t *testing.T) {
	w := &fakeWriter{}
	p := &Kafka{Writer: w}
	e := uploadEvent(t)

	require.NoError(t, p.Publish(context.Background(), e))
	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "a1b2c3", string(msg.Key))

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "application/cloudevents+json", headers["content-type"])
	assert.Equal(t, TypeUploadImported, headers["ce_type"])

	var decoded cloudevents.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, e.ID(), decoded.ID())

	require.NoError(t, p.Close())
	assert.True(t, w.closed)

	w.err = errors.New("broker down")
	assert.ErrorContains(t, p.Publish(context.Background(), e), "broker down")
}

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, in)
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestSQSPublish(t *testing.T) {
	client := &fakeSQS{}
	p := &SQS{Client: client, QueueURL: "https://sqs.local/000000000000/genocode"}

	e, err := New("genocode-test", TypeConsentRevoked, "a1b2c3", DataRemoved{Uploads: 2})
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), e))

	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, p.QueueURL, aws.ToString(in.QueueUrl))
	assert.Equal(t, TypeConsentRevoked, aws.ToString(in.MessageAttributes["ce_type"].StringValue))

	var decoded cloudevents.Event
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &decoded))
	var data DataRemoved
	require.NoError(t, decoded.DataAs(&data))
	assert.Equal(t, 2, data.Uploads)
	assert.Equal(t, "genocode-test", decoded.Source())
	assert.NoError(t, p.Close())
}
