package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher sends reservation events to an SQS queue. It can publish
// directly or act as the outbox Sink.
type SQSPublisher struct {
	client   sqsAPI
	queueURL string
	now      func() time.Time
}

// NewSQSPublisher creates a publisher around the provided SQS client.
func NewSQSPublisher(client *sqs.Client, queueURL string) *SQSPublisher {
	if client == nil {
		panic("events: SQS client cannot be nil")
	}
	return newSQSPublisher(client, queueURL)
}

func newSQSPublisher(client sqsAPI, queueURL string) *SQSPublisher {
	if queueURL == "" {
		panic("events: SQS queueURL cannot be empty")
	}
	return &SQSPublisher{client: client, queueURL: queueURL, now: time.Now}
}

// Publish sends evt immediately.
func (p *SQSPublisher) Publish(ctx context.Context, evt ReservationEvent) error {
	evt = evt.Stamp(p.now())
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("events: marshal reservation event: %w", err)
	}
	return p.send(ctx, evt.Type, string(body))
}

// Deliver forwards a claimed outbox entry.
func (p *SQSPublisher) Deliver(ctx context.Context, entry OutboxEntry) error {
	return p.send(ctx, entry.Type, string(entry.Payload))
}

func (p *SQSPublisher) send(ctx context.Context, eventType, body string) error {
	_, err := p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(body),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(eventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("events: failed to send SQS message: %w", err)
	}
	return nil
}
