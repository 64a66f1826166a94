package notifications

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/segmentio/kafka-go"
)

// Producer publishes lifecycle events to a message broker
type Producer interface {
	SendMessage(ctx context.Context, key, value []byte) error
	Close() error
}

type kafkaProducer struct {
	writer     *kafka.Writer
	maxElapsed time.Duration
}

// NewKafkaProducer writes to topic, retrying transient failures with exponential backoff
func NewKafkaProducer(brokers []string, topic string) Producer {
	return &kafkaProducer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           50 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
		maxElapsed: 30 * time.Second,
	}
}

func (p *kafkaProducer) SendMessage(ctx context.Context, key, value []byte) error {
	operation := func() (struct{}, error) {
		err := p.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: value, Time: time.Now()})
		if err != nil && ctx.Err() != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(p.maxElapsed))
	return err
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}
