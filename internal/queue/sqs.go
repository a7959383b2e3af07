package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// RawMessage is a single message fetched from the remote queue, still in
// its raw, undecoded form.
type RawMessage struct {
	Body          string
	ReceiptHandle string
	FetchedAt     time.Time
}

// RemoteQueue is the capability ReadWorkers need from the remote
// queue: receive a batch with a visibility timeout, and delete a
// message once it has been handed off or identified as poison. It is
// narrow on purpose so a fake implementation is trivial in tests.
type RemoteQueue interface {
	Receive(ctx context.Context, batchSize int32) ([]RawMessage, time.Duration, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// sqsAPI is the subset of the SQS client ReceiveMessage/DeleteMessage
// calls actually use, so tests can substitute a fake without pulling in
// network credentials.
type sqsAPI interface {
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSQueue is a RemoteQueue backed by Amazon SQS.
type SQSQueue struct {
	client            sqsAPI
	queueURL          string
	visibilityTimeout time.Duration
}

// NewSQSQueue builds a RemoteQueue for the given queue, named either by
// its full http(s) queue URL or by its queue name; a name is resolved to
// its URL with GetQueueUrl. endpointOverride, when non-empty, points the
// client at a local SQS-compatible endpoint (e.g. ElasticMQ or
// localstack) instead of AWS.
func NewSQSQueue(ctx context.Context, region, queueURL, endpointOverride string, visibilityTimeout time.Duration) (*SQSQueue, error) {
	optFns := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var sqsOptFns []func(*sqs.Options)
	if endpointOverride != "" {
		sqsOptFns = append(sqsOptFns, func(o *sqs.Options) {
			o.BaseEndpoint = aws.String(endpointOverride)
		})
	}

	client := sqs.NewFromConfig(cfg, sqsOptFns...)

	if !strings.HasPrefix(queueURL, "http://") && !strings.HasPrefix(queueURL, "https://") {
		out, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(queueURL)})
		if err != nil {
			return nil, fmt.Errorf("resolve sqs queue url for %q: %w", queueURL, err)
		}
		queueURL = aws.ToString(out.QueueUrl)
	}

	return &SQSQueue{client: client, queueURL: queueURL, visibilityTimeout: visibilityTimeout}, nil
}

// Receive fetches up to batchSize messages, using the queue's configured
// visibility timeout. It returns the visibility timeout actually in
// effect alongside the messages, since ReadWorker needs it to compute
// each invocation's deadline.
func (q *SQSQueue) Receive(ctx context.Context, batchSize int32) ([]RawMessage, time.Duration, error) {
	if batchSize > 10 {
		batchSize = 10
	}
	if batchSize < 1 {
		batchSize = 1
	}

	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.queueURL),
		MaxNumberOfMessages: batchSize,
		VisibilityTimeout:   int32(q.visibilityTimeout.Seconds()),
		WaitTimeSeconds:     1,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("sqs receive: %w", err)
	}

	now := time.Now()
	messages := make([]RawMessage, 0, len(out.Messages))
	for _, m := range out.Messages {
		messages = append(messages, RawMessage{
			Body:          aws.ToString(m.Body),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
			FetchedAt:     now,
		})
	}
	return messages, q.visibilityTimeout, nil
}

// Delete removes a message from the remote queue by receipt handle.
func (q *SQSQueue) Delete(ctx context.Context, receiptHandle string) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("sqs delete: %w", err)
	}
	return nil
}
